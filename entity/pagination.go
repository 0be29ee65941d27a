package entity

type Pagination struct {
	Page    *uint32 `json:"page,omitempty"`
	Limit   *uint32 `json:"limit,omitempty"`
	HasNext *bool   `json:"has_next,omitempty"`
	Total   *int64  `json:"total,omitempty"`
}

func (p *Pagination) GetPage() uint32 {
	if p != nil && p.Page != nil {
		return *p.Page
	}
	return 0
}

func (p *Pagination) GetLimit() uint32 {
	if p != nil && p.Limit != nil {
		return *p.Limit
	}
	return 0
}

func (p *Pagination) GetHasNext() bool {
	if p != nil && p.HasNext != nil {
		return *p.HasNext
	}
	return false
}
