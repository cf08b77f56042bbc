// Command cartctl drives the cart API from a terminal through the client
// view: every command performs one gesture and prints the resulting cart.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/mrops-br/cart-api/internal/client"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL  string
	userID  string
	timeout time.Duration
	verbose bool
}

func main() {
	_ = godotenv.Load()

	opts := &options{}
	root := newRootCommand(opts)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Manage a shopping cart through the cart API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("CART_API_URL", "http://localhost:8080"), "cart API base URL")
	root.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("CART_USER_ID"), "logged-in user id")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		gestureCommand(opts, "show", "Show the cart", cobra.NoArgs,
			func(ctx context.Context, v *client.View, _ []string) error { return v.Load(ctx) }),
		gestureCommand(opts, "add PRODUCT_ID [QUANTITY]", "Add a product to the cart", cobra.RangeArgs(1, 2),
			func(ctx context.Context, v *client.View, args []string) error {
				quantity := 1
				if len(args) == 2 {
					q, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("invalid quantity %q", args[1])
					}
					quantity = q
				}
				return v.Add(ctx, args[0], quantity)
			}),
		gestureCommand(opts, "set PRODUCT_ID QUANTITY", "Set the quantity of a cart line", cobra.ExactArgs(2),
			func(ctx context.Context, v *client.View, args []string) error {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				return v.SetQuantity(ctx, args[0], q)
			}),
		gestureCommand(opts, "decrement PRODUCT_ID", "Lower a cart line by one", cobra.ExactArgs(1),
			func(ctx context.Context, v *client.View, args []string) error { return v.Decrease(ctx, args[0]) }),
		gestureCommand(opts, "remove PRODUCT_ID", "Remove a cart line", cobra.ExactArgs(1),
			func(ctx context.Context, v *client.View, args []string) error { return v.Remove(ctx, args[0]) }),
		gestureCommand(opts, "clear", "Empty the cart", cobra.NoArgs,
			func(ctx context.Context, v *client.View, _ []string) error { return v.Clear(ctx) }),
		gestureCommand(opts, "cleanup", "Drop lines whose products were deleted", cobra.NoArgs,
			func(ctx context.Context, v *client.View, _ []string) error { return v.Cleanup(ctx) }),
		gestureCommand(opts, "coupon CODE", "Quote a coupon against the cart", cobra.ExactArgs(1),
			func(ctx context.Context, v *client.View, args []string) error { return v.ApplyCoupon(ctx, args[0]) }),
		productsCommand(opts),
	)

	return root
}

func gestureCommand(
	opts *options,
	use, short string,
	args cobra.PositionalArgs,
	run func(ctx context.Context, v *client.View, args []string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts)
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			session := client.NewSession()
			if opts.userID != "" {
				if err := session.Login(opts.userID); err != nil {
					return err
				}
			}
			view := client.NewView(session, newAPI(opts))

			logger.Debug("Running gesture",
				slog.String("command", cmd.Name()),
				slog.String("user_id", opts.userID),
			)
			if err := run(ctx, view, args); err != nil {
				logger.Debug("Gesture failed", slog.String("error", err.Error()))
				return err
			}
			return client.Render(cmd.OutOrStdout(), view.State())
		},
	}
}

func productsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			products, err := newAPI(opts).ListProducts(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
			for _, p := range products {
				stock := "unlimited"
				if p.Stock > 0 {
					stock = strconv.Itoa(p.Stock)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Category, p.Price, stock)
			}
			return tw.Flush()
		},
	}
}

func newAPI(opts *options) *client.CartClient {
	return client.NewCartClient(opts.apiURL, &http.Client{Timeout: opts.timeout})
}

func newLogger(opts *options) *slog.Logger {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
