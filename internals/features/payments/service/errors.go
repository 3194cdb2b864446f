package service

import "errors"

// Failure classes of the checkout flow. Each one maps to a distinct user
// message at the controller boundary; none of them may crash the host.
var (
	// the verification read after create did not find the record; abort
	// before any money moves
	ErrLedgerWrite = errors.New("ledger write could not be verified")

	// network/4xx/5xx/malformed response from the payment provider;
	// terminal for the attempt, user must restart checkout
	ErrProvider = errors.New("payment provider error")

	// the provider explicitly returned a non-approved state on capture
	ErrPaymentNotApproved = errors.New("payment not approved by provider")

	// capture succeeded with the provider but the completed write could not
	// be confirmed locally; must surface "contact support", never re-capture
	ErrStatusPersistence = errors.New("payment captured but local status not persisted")

	// routing table miss, a configuration bug rather than a user mistake
	ErrUnknownCertificateType = errors.New("unknown certificate type")
)
