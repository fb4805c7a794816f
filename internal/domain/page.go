package domain

// PageCursor is the pagination position read from a single response's headers.
// Previous and Next are nil when the host did not report them.
type PageCursor struct {
	Current  int
	Previous *int
	Next     *int
}

// HasNext reports whether the host announced a following page.
func (c *PageCursor) HasNext() bool {
	return c != nil && c.Next != nil
}
