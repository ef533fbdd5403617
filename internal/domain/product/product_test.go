package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Skip(t *testing.T) {
	tests := []struct {
		name string
		req  PageRequest
		want int
	}{
		{name: "first page", req: PageRequest{Page: 1, Limit: 10}, want: 0},
		{name: "second page", req: PageRequest{Page: 2, Limit: 10}, want: 10},
		{name: "fifth page of 20", req: PageRequest{Page: 5, Limit: 20}, want: 80},
		{name: "zero page treated as first", req: PageRequest{Page: 0, Limit: 10}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Skip())
		})
	}
}

func TestPageRequest_Scoped(t *testing.T) {
	assert.False(t, PageRequest{}.Scoped())
	assert.False(t, PageRequest{Category: AllCategories}.Scoped())
	assert.True(t, PageRequest{Category: "groceries"}.Scoped())
}

func TestProduct_CloneDoesNotShareImages(t *testing.T) {
	p := Product{ID: 1, Images: []string{"a.jpg", "b.jpg"}}
	c := p.Clone()
	c.Images[0] = "changed.jpg"

	assert.Equal(t, "a.jpg", p.Images[0])
}

func TestProduct_CoverImage(t *testing.T) {
	assert.Equal(t, "thumb.jpg", Product{Thumbnail: "thumb.jpg", Images: []string{"a.jpg"}}.CoverImage())
	assert.Equal(t, "a.jpg", Product{Images: []string{"a.jpg"}}.CoverImage())
	assert.Empty(t, Product{}.CoverImage())
}
