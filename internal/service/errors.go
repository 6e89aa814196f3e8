package service

import "fmt"

// InsufficientStockError is returned when a cart or checkout operation
// asks for more units than the catalog holds. Available reflects the
// stock level at the time of the check.
type InsufficientStockError struct {
	ProductName string
	Size        string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	if e.Size != "" {
		return fmt.Sprintf("insufficient stock for %s (size %s): requested %d, available %d",
			e.ProductName, e.Size, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// CouponInvalidError carries the reason a coupon could not be applied,
// suitable for returning to the client verbatim.
type CouponInvalidError struct {
	Code   string
	Reason string
}

func (e *CouponInvalidError) Error() string {
	return fmt.Sprintf("coupon %s: %s", e.Code, e.Reason)
}
