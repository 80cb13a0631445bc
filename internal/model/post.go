package model

import "unicode/utf8"

// BodyMaxLength 与 posts.body 列宽一致（按字符计）
const BodyMaxLength = 1000

// Post 帖子，ID 来自上游数据源，不自增
type Post struct {
	UserID int    `json:"userId" gorm:"column:user_id;index:idx_post_user"`
	ID     int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title  string `json:"title" gorm:"type:text"`
	Body   string `json:"body" gorm:"type:varchar(1000)"`
}

func (Post) TableName() string { return "posts" }

// Normalize 截断超长 body，写库前调用
func (p *Post) Normalize() {
	if utf8.RuneCountInString(p.Body) <= BodyMaxLength {
		return
	}
	runes := []rune(p.Body)
	p.Body = string(runes[:BodyMaxLength])
}
