package core

import "shobergarden/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Pet                = domain.Pet
	Wallet             = domain.Wallet
	Listing            = domain.Listing
	LedgerEntry        = domain.LedgerEntry
	LedgerKind         = domain.LedgerKind
	OwnershipRecord    = domain.OwnershipRecord
	TransferType       = domain.TransferType
	StudRequest        = domain.StudRequest
	StudStatus         = domain.StudStatus
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleView           = domain.RuleView
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityPet         = domain.EntityPet
	EntityWallet      = domain.EntityWallet
	EntityListing     = domain.EntityListing
	EntityLedgerEntry = domain.EntityLedgerEntry
	EntityOwnership   = domain.EntityOwnership
	EntityStudRequest = domain.EntityStudRequest
)

const (
	StudPending  = domain.StudPending
	StudAccepted = domain.StudAccepted
	StudDeclined = domain.StudDeclined
	StudExpired  = domain.StudExpired
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine returns an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

const (
	LedgerBreedingCost  = domain.LedgerBreedingCost
	LedgerStudFeePaid   = domain.LedgerStudFeePaid
	LedgerStudFeeEarned = domain.LedgerStudFeeEarned
	LedgerSale          = domain.LedgerSale
	LedgerPurchase      = domain.LedgerPurchase
	LedgerGrant         = domain.LedgerGrant
)

const (
	TransferMint  = domain.TransferMint
	TransferBreed = domain.TransferBreed
	TransferSale  = domain.TransferSale
	TransferStud  = domain.TransferStud
)
