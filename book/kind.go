package book

// Kind is the role page plays in the book.
type Kind int

const (
	KindCover Kind = iota
	KindContent
	KindBackCover
)

func (k Kind) String() string {
	switch k {
	case KindCover:
		return "cover"
	case KindContent:
		return "content"
	case KindBackCover:
		return "back-cover"
	}
	return "unknown"
}

// Layout is classified page: its kind and, for content pages, which side
// image goes to. Even content pages have image on the left.
type Layout struct {
	Kind Kind
	Even bool
}

// Classify assigns layout to every page by position: first is cover, last is
// back cover (only when there are at least two pages), everything in between
// is content alternating by index parity.
func Classify(pages []Page) []Layout {
	res := make([]Layout, len(pages))
	for i := range pages {
		switch {
		case i == 0:
			res[i] = Layout{Kind: KindCover}
		case i == len(pages)-1:
			res[i] = Layout{Kind: KindBackCover}
		default:
			res[i] = Layout{Kind: KindContent, Even: i%2 == 0}
		}
	}
	return res
}
