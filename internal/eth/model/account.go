package model

// Role is the mutually exclusive label an Account node carries.
type Role string

const (
	// External marks an externally owned account.
	External Role = "External"
	// Contract marks an account holding deployed code.
	Contract Role = "Contract"
)

// AccountRequest asks the graph writer to create an Account node.
type AccountRequest struct {
	Address string
	Role    Role
}

// IsContract reports whether the requested account is a contract.
func (r AccountRequest) IsContract() bool {
	return r.Role == Contract
}

// MaxAccountsPerStatement bounds a single account creation call.
const MaxAccountsPerStatement = 2
