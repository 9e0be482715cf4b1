package entities

import "fmt"

// Category partitions the response media pool.
type Category string

const (
	CategoryAccept  Category = "accept"
	CategoryDecline Category = "decline"
)

// ParseCategoryMark converts the admin command mark (A|D) to a category.
func ParseCategoryMark(mark string) (Category, error) {
	switch mark {
	case "A":
		return CategoryAccept, nil
	case "D":
		return CategoryDecline, nil
	default:
		return "", fmt.Errorf("%w: unknown category mark %q", ErrValidation, mark)
	}
}

func CategoryFor(accept bool) Category {
	if accept {
		return CategoryAccept
	}
	return CategoryDecline
}

func (c Category) Mark() string {
	if c == CategoryAccept {
		return "A"
	}
	return "D"
}

func (c Category) Valid() bool {
	return c == CategoryAccept || c == CategoryDecline
}

// MediaBlob is a stored response clip. (Name, Category) is unique.
type MediaBlob struct {
	Name     string
	Category Category
	Data     []byte
}

// Key qualifies the name with its category. Handles are cached per key.
func (b MediaBlob) Key() string {
	return string(b.Category) + "/" + b.Name
}

// MediaInfo is a blob listing entry without the payload.
type MediaInfo struct {
	Name     string
	Category Category
	Size     int64
}
