package client

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render writes a plain-text cart summary. Stale lines are skipped.
func Render(w io.Writer, s State) error {
	if s.Cart == nil || len(s.Cart.Items) == 0 {
		_, err := fmt.Fprintln(w, "Your cart is empty. Start shopping!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tID\tPRICE\tQTY\tSTOCK\tSUBTOTAL")
	for _, item := range s.Cart.Items {
		if item.Product == nil {
			continue
		}
		stock := "unlimited"
		if item.Product.Stock > 0 {
			stock = fmt.Sprintf("%d available", item.Product.Stock)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\t%.2f\n",
			item.Product.Name, item.Product.ID, item.Product.Price, item.Quantity, stock, LineSubtotal(item))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPrice (%d items): %.2f\n", s.Cart.ItemCount, Total(s.Cart))
	if s.Coupon != "" {
		fmt.Fprintf(w, "Coupon %s: -%.2f\n", s.Coupon, s.Discount)
	} else {
		fmt.Fprintf(w, "Discount: -%.2f\n", s.Discount)
	}
	fmt.Fprintf(w, "Platform Fee: %.2f\n", PlatformFee)
	_, err := fmt.Fprintf(w, "Total Amount: %.2f\n", s.Payable())
	return err
}
