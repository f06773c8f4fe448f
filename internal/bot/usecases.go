package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sergeysynergy/omegabot/internal/otomax"
)

const historyLimit = 10

// next step decided by a state transition, executed outside the store lock.
type step int

const (
	stepNone step = iota
	stepListProducts
	stepCheckPrice
	stepSubmit
)

// HandleAction is the single entry point the chat-transport collaborator
// calls for every inbound user action. It always returns a render
// instruction; remote failures arrive as Failure results and are relayed,
// never raised.
func (b *Bot) HandleAction(ctx context.Context, a Action) *Reply {
	switch a.Kind {
	case ActionStart:
		return b.mainMenu("Welcome! Pick an option:")
	case ActionCancel:
		return b.cancel(a.UserID)
	case ActionMenu:
		return b.handleMenu(ctx, a)
	case ActionText:
		return b.handleText(ctx, a.UserID, a.Data)
	default:
		return textReply("Unknown action.")
	}
}

func (b *Bot) mainMenu(text string) *Reply {
	r := &Reply{Text: text}
	r.Choices = append(r.Choices,
		Choice{Label: "Check Balance", Data: MenuBalance},
		Choice{Label: "Order Product", Data: MenuOrder},
	)
	for _, c := range Categories {
		r.Choices = append(r.Choices, Choice{Label: c.Name, Data: menuCatalogPrefix + c.Code})
	}
	r.Choices = append(r.Choices,
		Choice{Label: "History", Data: MenuHistory},
		Choice{Label: "Deposit", Data: MenuDeposit},
		Choice{Label: "Help", Data: MenuHelp},
	)
	return r
}

func (b *Bot) cancel(userID int64) *Reply {
	err := b.Sessions.Update(userID, func(s *Session) error {
		return nil
	})
	if errors.Is(err, ErrSessionBusy) {
		return textReply("Your order is still being processed, please wait.")
	}

	b.Sessions.Delete(userID)
	return b.mainMenu("Cancelled. Back to the main menu:")
}

func (b *Bot) handleMenu(ctx context.Context, a Action) *Reply {
	data := a.Data
	switch {
	case data == MenuBalance:
		return b.checkBalance(ctx)
	case data == MenuOrder:
		return b.startOrder(a.UserID, "")
	case data == MenuHistory:
		return b.history(a.UserID)
	case data == MenuDeposit:
		return b.depositMenu()
	case data == MenuHelp:
		return b.help()
	case data == MenuConfirm:
		return b.confirmOrder(ctx, a.UserID)
	case data == MenuCancel:
		return b.cancel(a.UserID)
	case strings.HasPrefix(data, menuCatalogPrefix):
		return b.startOrder(a.UserID, strings.TrimPrefix(data, menuCatalogPrefix))
	case strings.HasPrefix(data, menuSelectPrefix):
		return b.selectProduct(ctx, a.UserID, strings.TrimPrefix(data, menuSelectPrefix))
	case strings.HasPrefix(data, menuDepositPrefix):
		return b.deposit(ctx, strings.TrimPrefix(data, menuDepositPrefix))
	default:
		return textReply("Unknown menu option.")
	}
}

func (b *Bot) checkBalance(ctx context.Context) *Reply {
	res := b.gateway.CheckBalance(ctx)
	if res.Status != otomax.StatusSuccess {
		return textReply("Balance check failed: " + res.Reason)
	}

	if saldo, err := strconv.ParseUint(res.Fields[otomax.FieldSaldo], 10, 64); err == nil {
		return textReply("Your balance: " + rupiah(saldo))
	}
	return textReply("Balance check OK: " + res.Fields[otomax.FieldMessage])
}

func (b *Bot) startOrder(userID int64, category string) *Reply {
	_, err := b.Sessions.Start(userID, category)
	if errors.Is(err, ErrSessionBusy) {
		return textReply("Your previous order is still being processed, please wait.")
	}

	if category != "" {
		return textReply(fmt.Sprintf("%s\nEnter the destination number:", categoryName(category)))
	}
	return textReply("Enter the destination number (phone number, meter ID, ...):")
}

func (b *Bot) history(userID int64) *Reply {
	trs, err := b.storage.UserTransactions(userID, historyLimit)
	if err != nil {
		b.log.Error().Err(err).Int64("user", userID).Msg("failed to load transaction history")
		return textReply("Could not load your history, please try again.")
	}
	if len(trs) == 0 {
		return textReply("No transactions yet.")
	}

	var sb strings.Builder
	sb.WriteString("Your last transactions:\n")
	for i, tr := range trs {
		fmt.Fprintf(&sb, "%d. %s %s -> %s [%s]", i+1, tr.ProductCode, rupiah(tr.Price), tr.Destination, tr.Status)
		if tr.SN != "" {
			fmt.Fprintf(&sb, " SN: %s", tr.SN)
		}
		sb.WriteByte('\n')
	}
	return textReply(sb.String())
}

func (b *Bot) help() *Reply {
	return textReply("How to order:\n" +
		"1. Pick a product category or direct order\n" +
		"2. Enter the destination number\n" +
		"3. Pick a package or enter a product code\n" +
		"4. Wait for the confirmation\n\n" +
		"Destination format: 08123456789 or 628123456789, digits only.")
}

func (b *Bot) depositMenu() *Reply {
	r := &Reply{Text: "Pick a deposit amount:"}
	for _, amount := range depositAmounts {
		r.Choices = append(r.Choices, Choice{
			Label: rupiah(amount),
			Data:  menuDepositPrefix + strconv.FormatUint(amount, 10),
		})
	}
	return r
}

func (b *Bot) deposit(ctx context.Context, amountStr string) *Reply {
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil || amount == 0 {
		return textReply("Deposit amount must be a positive number.")
	}

	res := b.gateway.RequestDeposit(ctx, amount)
	if res.Status != otomax.StatusSuccess {
		return textReply("Deposit request failed: " + res.Reason)
	}
	msg := res.Fields[otomax.FieldMessage]
	if msg == "" {
		msg = "follow the transfer instructions sent by the provider"
	}
	return textReply("Deposit ticket for " + rupiah(amount) + " requested: " + msg)
}

// handleText advances the state machine on free-text input. The transition
// itself runs under the session-store lock; when it requires a network call
// the session is marked busy inside the same critical section, so a second
// message racing the call is rejected instead of overwriting session state.
func (b *Bot) handleText(ctx context.Context, userID int64, text string) *Reply {
	var (
		next stepReply
		sess *Session
	)

	err := b.Sessions.Update(userID, func(s *Session) error {
		sess = s
		next = advance(s, strings.TrimSpace(text))
		if next.step != stepNone {
			s.busy = true
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrNoSession):
		return b.mainMenu("No order in progress. Start one from the menu:")
	case errors.Is(err, ErrSessionBusy):
		return textReply("Still processing your previous request, please wait.")
	}

	return b.execute(ctx, sess, next)
}

// selectProduct handles a catalog pick delivered as a menu action.
func (b *Bot) selectProduct(ctx context.Context, userID int64, productID string) *Reply {
	var (
		next stepReply
		sess *Session
	)

	err := b.Sessions.Update(userID, func(s *Session) error {
		sess = s
		if s.State != StateAwaitingProductSelection {
			next = stepReply{reply: textReply("Nothing to select right now.")}
			return nil
		}
		next = pickProduct(s, productID)
		if next.step != stepNone {
			s.busy = true
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrNoSession):
		return b.mainMenu("That selection has expired. Start again from the menu:")
	case errors.Is(err, ErrSessionBusy):
		return textReply("Still processing your previous request, please wait.")
	}

	return b.execute(ctx, sess, next)
}

// stepReply couples the decided follow-up step with either an immediate
// reply or the parameters the step needs.
type stepReply struct {
	step        step
	reply       *Reply
	productCode string
	productID   string
	productName string
}

// advance applies one free-text input to the session. Pure state logic: any
// network step is only decided here, executed by the caller.
func advance(s *Session, text string) stepReply {
	switch s.State {
	case StateAwaitingDestination:
		if text == "" {
			return stepReply{reply: textReply("Destination cannot be empty, try again:")}
		}
		s.Destination = text
		if s.catalog() {
			return stepReply{step: stepListProducts}
		}
		s.State = StateAwaitingProductCode
		return stepReply{reply: textReply(fmt.Sprintf("Destination: %s\nNow enter the product code:", text))}

	case StateAwaitingProductCode:
		if text == "" {
			return stepReply{reply: textReply("Product code cannot be empty, try again:")}
		}
		return stepReply{step: stepSubmit, productCode: text}

	case StateAwaitingProductSelection:
		return pickProduct(s, text)

	default:
		return stepReply{reply: textReply("Unexpected input, back to the menu please.")}
	}
}

// pickProduct resolves a catalog choice against the listing cached in the
// session. The pick is not terminal: a price check and an explicit user
// confirmation still stand between it and the submission.
func pickProduct(s *Session, productID string) stepReply {
	for _, p := range s.Products {
		if p.ID == productID {
			s.ProductID = p.ID
			s.ProductName = p.Name
			s.Price = p.Price
			return stepReply{
				step:        stepCheckPrice,
				productCode: payCode(s.Category),
				productID:   p.ID,
				productName: p.Name,
			}
		}
	}
	return stepReply{reply: textReply("Product not found in the list, pick one of the offered packages.")}
}

// payCode derives the order product code from a catalog category: LISTDX -> DX.
func payCode(category string) string {
	return strings.TrimPrefix(category, "LIST")
}

// priceCode derives the price-check code from a catalog category: LISTDX -> CEKDX.
func priceCode(category string) string {
	return "CEK" + payCode(category)
}

// execute performs the network step decided by a transition, if any.
func (b *Bot) execute(ctx context.Context, s *Session, next stepReply) *Reply {
	switch next.step {
	case stepListProducts:
		return b.listProducts(ctx, s)
	case stepCheckPrice:
		return b.confirmPrice(ctx, s, next)
	case stepSubmit:
		return b.submitOrder(ctx, s, next)
	default:
		if next.reply != nil {
			return next.reply
		}
		return textReply("OK")
	}
}

func (b *Bot) listProducts(ctx context.Context, s *Session) *Reply {
	res := b.gateway.ListProducts(ctx, s.Category, s.Destination)
	if res.Status != otomax.StatusSuccess {
		b.Sessions.Delete(s.UserID)
		return textReply("Could not fetch the package list: " + res.Reason)
	}
	if len(res.Products) == 0 {
		b.Sessions.Delete(s.UserID)
		return textReply("No packages available right now.")
	}

	// Busy-clear and transition share one critical section: no other action
	// for this user can land on the pre-listing state in between.
	err := b.Sessions.EndCallUpdate(s.UserID, func(s *Session) error {
		s.Products = res.Products
		s.State = StateAwaitingProductSelection
		return nil
	})
	if err != nil {
		return textReply("That order has been cancelled in the meantime.")
	}

	r := &Reply{Text: fmt.Sprintf("Packages for %s, pick one:", s.Destination)}
	for _, p := range res.Products {
		r.Choices = append(r.Choices, Choice{
			Label: fmt.Sprintf("%s - %s", truncate(p.Name, 40), rupiah(p.Price)),
			Data:  menuSelectPrefix + p.ID,
		})
	}
	return r
}

// confirmPrice runs the price check for the picked package and asks for an
// explicit confirmation before anything is submitted. The listing price is
// the fallback when the check does not deliver one.
func (b *Bot) confirmPrice(ctx context.Context, s *Session, next stepReply) *Reply {
	res := b.gateway.CheckPrice(ctx, priceCode(s.Category), s.Destination, next.productID)

	price := s.Price
	if res.Status == otomax.StatusSuccess {
		if p, err := strconv.ParseUint(res.Fields[otomax.FieldPrice], 10, 64); err == nil && p > 0 {
			price = p
		}
	}

	err := b.Sessions.EndCallUpdate(s.UserID, func(s *Session) error {
		s.Price = price
		s.State = StateAwaitingConfirmation
		return nil
	})
	if err != nil {
		return textReply("That order has been cancelled in the meantime.")
	}

	r := &Reply{Text: fmt.Sprintf("%s for %s\nPrice: %s\nConfirm the order?",
		next.productName, s.Destination, rupiah(price))}
	r.Choices = append(r.Choices,
		Choice{Label: "Confirm", Data: MenuConfirm},
		Choice{Label: "Cancel", Data: MenuCancel},
	)
	return r
}

// confirmOrder performs the submission the user just confirmed.
func (b *Bot) confirmOrder(ctx context.Context, userID int64) *Reply {
	var (
		next stepReply
		sess *Session
	)

	err := b.Sessions.Update(userID, func(s *Session) error {
		sess = s
		if s.State != StateAwaitingConfirmation {
			next = stepReply{reply: textReply("Nothing to confirm right now.")}
			return nil
		}
		next = stepReply{
			step:        stepSubmit,
			productCode: payCode(s.Category),
			productID:   s.ProductID,
			productName: s.ProductName,
		}
		s.busy = true
		return nil
	})
	switch {
	case errors.Is(err, ErrNoSession):
		return b.mainMenu("That order has expired. Start again from the menu:")
	case errors.Is(err, ErrSessionBusy):
		return textReply("Still processing your previous request, please wait.")
	}

	return b.execute(ctx, sess, next)
}

// submitOrder performs the terminal step: exactly one order submission, a
// history record, and session deletion regardless of the outcome.
func (b *Bot) submitOrder(ctx context.Context, s *Session, next stepReply) *Reply {
	res := b.gateway.SubmitOrder(ctx, next.productCode, s.Destination, next.productID)

	b.Sessions.EndCall(s.UserID)
	b.Sessions.Delete(s.UserID)

	tr := &Transaction{
		UserID:      s.UserID,
		RefID:       res.Fields[otomax.FieldRefID],
		ProductCode: next.productCode,
		ProductName: next.productName,
		Destination: s.Destination,
		Status:      res.Status.String(),
		SN:          res.Fields[otomax.FieldSN],
		Message:     res.Fields[otomax.FieldMessage],
	}
	if price, err := strconv.ParseUint(res.Fields[otomax.FieldPrice], 10, 64); err == nil {
		tr.Price = price
	} else if s.Price > 0 {
		tr.Price = s.Price
	}
	if err := b.storage.AddTransaction(tr); err != nil {
		b.log.Error().Err(err).Str("refID", tr.RefID).Msg("failed to record transaction")
	}

	switch res.Status {
	case otomax.StatusSuccess:
		text := fmt.Sprintf("Order successful!\nRef: %s\nProduct: %s\nDestination: %s",
			tr.RefID, next.productCode, s.Destination)
		if tr.SN != "" {
			text += "\nSN: " + tr.SN
		}
		if tr.Price > 0 {
			text += "\nPrice: " + rupiah(tr.Price)
		}
		return textReply(text)
	case otomax.StatusPending:
		return textReply(fmt.Sprintf(
			"Order status unknown (ref %s): %s\nDo NOT resubmit before checking the history.",
			tr.RefID, res.Reason))
	default:
		return textReply("Order failed: " + res.Reason)
	}
}

// ResolveTransaction applies a provider status callback to a recorded
// transaction, typically settling one that was left pending.
func (b *Bot) ResolveTransaction(refID string, upd TransactionUpdate) error {
	if refID == "" {
		return fmt.Errorf("reference ID needed")
	}
	if err := b.storage.UpdateTransaction(refID, upd); err != nil {
		return fmt.Errorf("failed to resolve transaction %s - %w", refID, err)
	}
	b.log.Info().Str("refID", refID).Str("status", upd.Status).Msg("transaction resolved")
	return nil
}
