package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/service"
)

// errUsage means the arguments did not name a runnable command.
var errUsage = errors.New("invalid arguments")

type cli struct {
	app *app.App
	in  *bufio.Reader
	out io.Writer
}

// run dispatches one command line.
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		if len(rest) != 2 {
			return errUsage
		}
		return c.login(ctx, rest[0], rest[1])
	case "logout":
		return c.app.Auth.Logout(ctx)
	case "cart":
		return c.cart(ctx, rest)
	case "orders":
		return c.showOrders(ctx)
	case "products":
		return c.products(ctx, rest)
	case "product":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return c.showProduct(ctx, id)
	case "wishlist":
		return c.wishlist(ctx, rest)
	case "addresses":
		return c.showAddresses(ctx)
	case "address":
		return c.address(ctx, rest)
	case "default-address":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return c.setDefaultAddress(ctx, id)
	case "checkout":
		fs := c.flags("checkout")
		method := fs.String("method", string(domain.PaymentMethodCard), "payment method: card or wallet")
		addressID := fs.Int64("address", 0, "shipping address id; default address when 0")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		return c.checkout(ctx, domain.PaymentMethodKind(*method), *addressID)
	default:
		return errUsage
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", s, errUsage)
	}
	return id, nil
}

func (c *cli) login(ctx context.Context, email, password string) error {
	u, err := c.app.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s\n", u.DisplayName())
	return nil
}

// cart shows the cart, or edits it: add <product> [qty], qty <item> <qty>,
// rm <item>, clear.
func (c *cli) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showCart(ctx)
	}
	repo := c.app.Cart
	var err error
	switch {
	case args[0] == "add" && (len(args) == 2 || len(args) == 3):
		var productID int64
		if productID, err = parseID(args[1]); err != nil {
			return err
		}
		qty := 1
		if len(args) == 3 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[2], errUsage)
			}
		}
		err = repo.AddItem(ctx, productID, qty)
	case args[0] == "qty" && len(args) == 3:
		var itemID int64
		if itemID, err = parseID(args[1]); err != nil {
			return err
		}
		qty, perr := strconv.Atoi(args[2])
		if perr != nil {
			return fmt.Errorf("invalid quantity %q: %w", args[2], errUsage)
		}
		err = repo.UpdateQuantity(ctx, itemID, qty)
	case args[0] == "rm" && len(args) == 2:
		var itemID int64
		if itemID, err = parseID(args[1]); err != nil {
			return err
		}
		err = repo.RemoveItem(ctx, itemID)
	case args[0] == "clear" && len(args) == 1:
		err = repo.Clear(ctx)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	c.printCart(repo.Current())
	return nil
}

func (c *cli) showCart(ctx context.Context) error {
	cart, err := c.app.Cart.Load(ctx)
	if err != nil {
		return err
	}
	c.printCart(cart)
	return nil
}

func (c *cli) printCart(cart *domain.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(c.out, "Your cart is empty.")
		return
	}
	for _, item := range cart.Items {
		fmt.Fprintf(c.out, "%4d  %-30s x%-3d %10s\n", item.ID, item.Name, item.Quantity, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(c.out, "Total: %s (%d items)\n", cart.Total().StringFixed(2), cart.ItemCount())
}

func (c *cli) showOrders(ctx context.Context) error {
	orders, err := c.app.Orders.LoadOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "No orders yet.")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(c.out, "#%-6d %-10s %10s  %s\n", o.ID, o.Status, o.TotalAmount.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// products lists the catalog, narrowed by category or brand when asked.
func (c *cli) products(ctx context.Context, args []string) error {
	fs := c.flags("products")
	category := fs.String("category", "", "only this category")
	brand := fs.String("brand", "", "only this brand")
	search := fs.String("search", "", "free text search")
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	if *category != "" && *brand != "" {
		return fmt.Errorf("category and brand are exclusive: %w", errUsage)
	}

	var list []domain.Product
	var err error
	switch {
	case *category != "":
		list, err = c.app.Products.ListByCategory(ctx, *category)
	case *brand != "":
		list, err = c.app.Products.ListByBrand(ctx, *brand)
	default:
		list, err = c.app.Products.ListProducts(ctx, service.ProductQuery{Page: *page, Limit: *limit, Search: *search})
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No products found.")
		return nil
	}
	for _, p := range list {
		printProduct(c.out, p)
	}
	return nil
}

func (c *cli) showProduct(ctx context.Context, id int64) error {
	p, err := c.app.Products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	printProduct(c.out, *p)
	if p.Description != "" {
		fmt.Fprintf(c.out, "      %s\n", p.Description)
	}
	return nil
}

func printProduct(w io.Writer, p domain.Product) {
	fmt.Fprintf(w, "%4d  %-30s %10s  %s / %s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Category, p.Brand)
}

// wishlist shows the wish list, or edits it: add <product>, rm <product>.
func (c *cli) wishlist(ctx context.Context, args []string) error {
	svc := c.app.WishList
	switch {
	case len(args) == 0:
	case len(args) == 2 && (args[0] == "add" || args[0] == "rm"):
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			err = svc.AddToWishList(ctx, id)
		} else {
			err = svc.RemoveFromWishList(ctx, id)
		}
		if err != nil {
			return err
		}
	default:
		return errUsage
	}

	list, err := svc.GetWishList(ctx)
	if err != nil {
		return err
	}
	if list == nil || len(list.Products) == 0 {
		fmt.Fprintln(c.out, "Your wish list is empty.")
		return nil
	}
	for _, p := range list.Products {
		printProduct(c.out, p)
	}
	return nil
}

func (c *cli) showAddresses(ctx context.Context) error {
	list, err := c.app.Shipping.Load(ctx)
	if err != nil {
		return err
	}
	c.printAddresses(list)
	return nil
}

func (c *cli) printAddresses(list []domain.ShippingDetails) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No saved addresses.")
		return
	}
	for _, a := range list {
		printAddress(c.out, a)
	}
}

// address edits the saved addresses: add, edit <id>, rm <id>.
func (c *cli) address(ctx context.Context, args []string) error {
	repo := c.app.Shipping
	switch {
	case len(args) == 1 && args[0] == "add":
		form := domain.NewShippingForm(domain.ShippingDetails{})
		if err := c.fillForm(ctx, &form); err != nil {
			return err
		}
		if _, err := repo.Create(ctx, form.Details()); err != nil {
			return err
		}
	case len(args) == 2 && args[0] == "edit":
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		list, err := repo.Load(ctx)
		if err != nil {
			return err
		}
		current, ok := findAddress(list, id)
		if !ok {
			return fmt.Errorf("no address with id %d", id)
		}
		form := domain.NewShippingForm(current)
		if err := c.fillForm(ctx, &form); err != nil {
			return err
		}
		if err := repo.Update(ctx, id, form.Details()); err != nil {
			return err
		}
	case len(args) == 2 && args[0] == "rm":
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
	default:
		return errUsage
	}
	c.printAddresses(repo.State().Get().Data)
	return nil
}

func findAddress(list []domain.ShippingDetails, id int64) (domain.ShippingDetails, bool) {
	for _, a := range list {
		if a.HasID(id) {
			return a, true
		}
	}
	return domain.ShippingDetails{}, false
}

// fillForm asks for every field; an empty answer keeps the current value.
func (c *cli) fillForm(ctx context.Context, form *domain.ShippingForm) error {
	fields := []struct {
		label string
		field *domain.FormField
	}{
		{"Full name", &form.FullName},
		{"Phone", &form.Phone},
		{"Street", &form.Street},
		{"City", &form.City},
		{"State", &form.State},
		{"Postal code", &form.PostalCode},
		{"Country", &form.Country},
	}
	for _, f := range fields {
		label := f.label
		if f.field.Value != "" {
			label += " [" + f.field.Value + "]"
		}
		v, err := readLine(ctx, c.in, c.out, label+": ")
		if err != nil {
			return err
		}
		if v != "" {
			f.field.Value = v
		}
	}

	if err := form.Validate(); err != nil {
		for _, f := range fields {
			if !f.field.Valid {
				fmt.Fprintln(c.out, f.field.Error)
			}
		}
		return err
	}
	return nil
}

func (c *cli) setDefaultAddress(ctx context.Context, id int64) error {
	if _, err := c.app.Shipping.Load(ctx); err != nil {
		return err
	}
	if err := c.app.Shipping.SetDefault(ctx, id); err != nil {
		return err
	}
	c.printAddresses(c.app.Shipping.State().Get().Data)
	return nil
}

func printAddress(w io.Writer, a domain.ShippingDetails) {
	mark := " "
	if a.IsDefault {
		mark = "*"
	}
	var id int64
	if a.ID != nil {
		id = *a.ID
	}
	fmt.Fprintf(w, "%s %4d  %s, %s, %s %s, %s\n", mark, id, a.FullName, a.Street, a.City, a.PostalCode, a.Country)
}

// checkout walks the wizard to review, then pays and waits for the outcome.
func (c *cli) checkout(ctx context.Context, method domain.PaymentMethodKind, addressID int64) error {
	co := c.app.Checkout
	if _, ok := c.app.Auth.CurrentUser(); !ok {
		return fmt.Errorf("not signed in, run login first")
	}
	if err := c.showCart(ctx); err != nil {
		return err
	}

	if err := co.LoadAddresses(ctx); err != nil {
		return err
	}
	if addressID != 0 {
		if err := co.SelectAddress(ctx, addressID); err != nil {
			return err
		}
	}
	if err := co.Proceed(ctx); err != nil {
		return fmt.Errorf("%s: %w", co.Message().Get(), err)
	}
	if err := co.SelectPaymentMethod(ctx, method); err != nil {
		return err
	}
	if err := co.Proceed(ctx); err != nil {
		return fmt.Errorf("%s: %w", co.Message().Get(), err)
	}

	snap, err := co.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Ship to:")
	printAddress(c.out, *snap.Resolved)
	fmt.Fprintf(c.out, "Pay with: %s\n", snap.Method)

	// Back in review after processing means the payment was cancelled.
	finished := make(chan domain.CheckoutStep, 1)
	processing := false
	stop := co.Step().Subscribe(func(s domain.CheckoutStep) {
		switch {
		case s == domain.CheckoutStepProcessing:
			processing = true
			return
		case s.IsTerminal(), s == domain.CheckoutStepReview && processing:
		default:
			return
		}
		select {
		case finished <- s:
		default:
		}
	})
	defer stop()

	if err := co.Proceed(ctx); err != nil {
		return fmt.Errorf("%s: %w", co.Message().Get(), err)
	}

	select {
	case step := <-finished:
		return c.report(ctx, step)
	case <-ctx.Done():
		if err := co.Cancel(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (c *cli) report(ctx context.Context, step domain.CheckoutStep) error {
	snap, err := c.app.Checkout.Snapshot(ctx)
	if err != nil {
		return err
	}
	switch step {
	case domain.CheckoutStepConfirmation:
		fmt.Fprintf(c.out, "Paid. Order #%d is %s.\n", snap.Order.ID, snap.Order.Status)
		return nil
	case domain.CheckoutStepReview:
		fmt.Fprintln(c.out, snap.Message)
		return c.app.Checkout.Cancel(ctx)
	default:
		return fmt.Errorf("checkout failed: %s", snap.Message)
	}
}

// readLine prompts on out and reads one trimmed line from in, giving up when
// ctx ends. A last line without a newline still counts.
func readLine(ctx context.Context, in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	type line struct {
		text string
		err  error
	}
	got := make(chan line, 1)
	go func() {
		s, err := in.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		got <- line{strings.TrimSpace(s), err}
	}()
	select {
	case l := <-got:
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
