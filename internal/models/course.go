package models

// Course снимок курса. Движок только читает его.
type Course struct {
	ID          string
	Title       string
	IsFree      bool
	Price       float64
	CategoryIDs []string
}

// CourseSummary краткие сведения о курсе, возвращаемые вместе с решением.
type CourseSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	IsFree bool    `json:"is_free"`
	Price  float64 `json:"price"`
}

// Summary возвращает краткие сведения о курсе.
func (c *Course) Summary() *CourseSummary {
	return &CourseSummary{
		ID:     c.ID,
		Title:  c.Title,
		IsFree: c.IsFree,
		Price:  c.Price,
	}
}
