package model

// Page 一页帖子及分页元数据，Number 从 0 开始
type Page struct {
	Content       []Post
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage 按 total/size 向上取整计算总页数
func NewPage(content []Post, number, size int, total int64) *Page {
	if content == nil {
		content = []Post{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &Page{Content: content, Number: number, Size: size, TotalElements: total, TotalPages: pages}
}

func (p *Page) HasNext() bool     { return p.Number+1 < p.TotalPages }
func (p *Page) HasPrevious() bool { return p.Number > 0 }
func (p *Page) IsFirst() bool     { return !p.HasPrevious() }
func (p *Page) IsLast() bool      { return !p.HasNext() }
