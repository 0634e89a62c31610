package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

type Item struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	SalesFee  pgtype.Numeric
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BoothSession struct {
	ID              uuid.UUID
	Date            pgtype.Date
	Status          string
	OpenedBy        uuid.UUID
	ClosedBy        pgtype.UUID
	TotalSalesInput pgtype.Numeric
	TotalFee        pgtype.Numeric
	FeePaid         bool
	FeePaidAt       pgtype.Timestamptz
	FeePaidBy       pgtype.UUID
	Notes           pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BoothSessionItem struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ItemID    uuid.UUID
	QtyOpen   int32
	QtyClose  pgtype.Int4
}

type CashbookEntry struct {
	ID          uuid.UUID
	Date        pgtype.Date
	Type        string
	Category    string
	Amount      pgtype.Numeric
	Description pgtype.Text
	UserID      uuid.UUID
	SessionID   pgtype.UUID
	CreatedAt   time.Time
}

type PeriodClosing struct {
	ID           uuid.UUID
	StartDate    pgtype.Date
	EndDate      pgtype.Date
	TotalRevenue pgtype.Numeric
	TotalHpp     pgtype.Numeric
	TotalOpex    pgtype.Numeric
	NetProfit    pgtype.Numeric
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}
