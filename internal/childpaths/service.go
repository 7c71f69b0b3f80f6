package childpaths

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

const (
	// accountDisplayName labels every deposit account this tool creates,
	// and is how FindExistingAccount recognises them in the index.
	accountDisplayName = "Deposit Account"
	accountCurrency    = "EUR"

	createPath = "/user-finance-account/create"
	indexPath  = "/user-finance-account/index"
)

// Branch is one branch option of the remote organisation.
type Branch struct {
	Value string
	Label string
}

// ListBranches returns the branches offered on the account-creation form.
func (c *Client) ListBranches(ctx context.Context, s recon.Session) ([]Branch, error) {
	sess, err := c.session(s)
	if err != nil {
		return nil, err
	}

	doc, _, err := c.getPage(ctx, sess, createPath)
	if err != nil {
		return nil, fmt.Errorf("ListBranches: %w", err)
	}

	var branches []Branch
	for _, opt := range selectOptions(doc, "branch") {
		branches = append(branches, Branch{Value: opt.Value, Label: opt.Label})
	}
	return branches, nil
}

// ListBillpayers implements recon.AccountService: the owner options on the
// account-creation form are the billpayer roster for the selected branch.
func (c *Client) ListBillpayers(ctx context.Context, s recon.Session, branch string) ([]recon.BillpayerIdentity, error) {
	sess, err := c.session(s)
	if err != nil {
		return nil, err
	}

	doc, _, err := c.getPage(ctx, sess, createPath+"?branch="+url.QueryEscape(branch))
	if err != nil {
		return nil, fmt.Errorf("ListBillpayers: %w", err)
	}

	var roster []recon.BillpayerIdentity
	for _, opt := range selectOptions(doc, "owners[]") {
		if strings.TrimSpace(opt.Label) == "" {
			continue
		}
		roster = append(roster, recon.BillpayerIdentity{
			DisplayName: opt.Label,
			RemoteID:    opt.Value,
		})
	}
	return roster, nil
}

// CreateAccount implements recon.AccountService. The create form does not
// reveal the new account's id, so the returned handle carries an empty
// RemoteAccountID and callers recover it through FindExistingAccount.
func (c *Client) CreateAccount(ctx context.Context, s recon.Session, branch string, identity recon.BillpayerIdentity) (recon.AccountHandle, error) {
	sess, err := c.session(s)
	if err != nil {
		return recon.AccountHandle{}, err
	}

	doc, _, err := c.getPage(ctx, sess, createPath)
	if err != nil {
		return recon.AccountHandle{}, fmt.Errorf("CreateAccount: load form: %w", err)
	}

	form := url.Values{
		"branch":         {branch},
		"display_name":   {accountDisplayName},
		"currency":       {accountCurrency},
		"set_as_default": {"0"},
		"owners[]":       {identity.RemoteID},
	}
	if token := formToken(doc); token != "" {
		form.Set("_token", token)
	}

	landed, result, err := c.postForm(ctx, sess, createPath, form)
	if err != nil {
		return recon.AccountHandle{}, fmt.Errorf("CreateAccount: submit: %w", err)
	}
	if err := checkSession(createPath, landed); err != nil {
		return recon.AccountHandle{}, err
	}
	if err := formError("CreateAccount", formErrors(result)); err != nil {
		return recon.AccountHandle{}, err
	}

	return recon.AccountHandle{Identity: identity}, nil
}

// FindExistingAccount implements recon.AccountService by scanning the
// account index for the identity's deposit account. Row ids look like
// "ufa_123"; the numeric tail is the account id used in transaction URLs.
func (c *Client) FindExistingAccount(ctx context.Context, s recon.Session, identity recon.BillpayerIdentity) (*recon.AccountHandle, error) {
	sess, err := c.session(s)
	if err != nil {
		return nil, err
	}

	doc, _, err := c.getPage(ctx, sess, indexPath)
	if err != nil {
		return nil, fmt.Errorf("FindExistingAccount: %w", err)
	}

	for _, row := range indexRows(doc) {
		if !strings.HasPrefix(row.ID, "ufa_") {
			continue
		}
		var hasCaption, hasOwner bool
		for _, cell := range row.Cells {
			if strings.Contains(cell, accountDisplayName) {
				hasCaption = true
			}
			if strings.Contains(cell, identity.DisplayName) {
				hasOwner = true
			}
		}
		if hasCaption && hasOwner {
			return &recon.AccountHandle{
				Identity:        identity,
				RemoteAccountID: strings.TrimPrefix(row.ID, "ufa_"),
			}, nil
		}
	}
	return nil, nil
}

// PostTransaction implements recon.AccountService: one deposit or
// withdrawal form submission against an account.
func (c *Client) PostTransaction(ctx context.Context, s recon.Session, account recon.AccountHandle, kind recon.OperationType, amount float64, note, date string) error {
	sess, err := c.session(s)
	if err != nil {
		return err
	}

	var txKind string
	switch kind {
	case recon.OpDeposit:
		txKind = "deposit"
	case recon.OpWithdrawal:
		txKind = "withdrawal"
	default:
		return fmt.Errorf("PostTransaction: kind %q is not postable", kind)
	}

	path := fmt.Sprintf("/user-finance-account/%s/transaction/%s", account.RemoteAccountID, txKind)
	doc, _, err := c.getPage(ctx, sess, path)
	if err != nil {
		return fmt.Errorf("PostTransaction: load %s form: %w", txKind, err)
	}

	form := url.Values{
		"value": {fmt.Sprintf("%.2f", amount)},
	}
	if note != "" {
		form.Set("description", note)
	}
	if date != "" {
		form.Set("received_at", date)
	}
	if token := formToken(doc); token != "" {
		form.Set("_token", token)
	}

	landed, result, err := c.postForm(ctx, sess, path, form)
	if err != nil {
		return fmt.Errorf("PostTransaction: submit %s: %w", txKind, err)
	}
	if err := checkSession(path, landed); err != nil {
		return err
	}
	return formError("PostTransaction", formErrors(result))
}

// SetBillpayerEnabled toggles a billpayer's enabled flag through the
// guardian edit form. Used by the bulk toggle tool, not by the batch
// runner.
func (c *Client) SetBillpayerEnabled(ctx context.Context, s recon.Session, billpayerID string, enabled bool) error {
	sess, err := c.session(s)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/guardian/%s/edit", billpayerID)
	doc, _, err := c.getPage(ctx, sess, path)
	if err != nil {
		return fmt.Errorf("SetBillpayerEnabled: load edit form: %w", err)
	}

	value := "0"
	if enabled {
		value = "1"
	}
	form := url.Values{"enabled": {value}}
	if token := formToken(doc); token != "" {
		form.Set("_token", token)
	}

	landed, result, err := c.postForm(ctx, sess, path, form)
	if err != nil {
		return fmt.Errorf("SetBillpayerEnabled: submit: %w", err)
	}
	if err := checkSession(path, landed); err != nil {
		return err
	}
	return formError("SetBillpayerEnabled", formErrors(result))
}
