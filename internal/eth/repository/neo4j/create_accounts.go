package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

// CreateAccounts inserts one or two Account nodes in a single statement. An empty list is a no-op.
func (t *BlockTx) CreateAccounts(ctx context.Context, accounts []model.AccountRequest) error {
	query, params, err := createAccountsStatement(accounts)
	if err != nil {
		return err
	}
	if query == "" {
		return nil
	}

	if _, err = t.count(ctx, "create_accounts", query, params, "created"); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create accounts %v: %w: %w", addresses(accounts), model.ErrCorruption, err)
		}
		return fmt.Errorf("create accounts %v: %w", addresses(accounts), err)
	}
	return nil
}

func createAccountsStatement(accounts []model.AccountRequest) (string, map[string]any, error) {
	if len(accounts) > model.MaxAccountsPerStatement {
		return "", nil, fmt.Errorf("%w: got %d, max %d", model.ErrTooManyAccounts, len(accounts), model.MaxAccountsPerStatement)
	}
	if len(accounts) == 0 {
		return "", nil, nil
	}

	var (
		b      strings.Builder
		params = make(map[string]any, len(accounts))
	)
	for i, account := range accounts {
		label, err := roleLabel(account.Role)
		if err != nil {
			return "", nil, err
		}
		v := fmt.Sprintf("a%d", i)
		key := fmt.Sprintf("address%d", i)
		fmt.Fprintf(&b, "CREATE (%s:Account:%s {address: $%s})\n", v, label, key)
		params[key] = account.Address
	}
	fmt.Fprintf(&b, "RETURN %d AS created", len(accounts))

	return b.String(), params, nil
}

// roleLabel whitelists the labels interpolated into statements; labels cannot be parameters.
func roleLabel(role model.Role) (string, error) {
	switch role {
	case model.External, model.Contract:
		return string(role), nil
	default:
		return "", fmt.Errorf("unknown account role %q", role)
	}
}

func addresses(accounts []model.AccountRequest) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Address)
	}
	return out
}
