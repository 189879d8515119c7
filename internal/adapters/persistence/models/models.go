package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a closed set; every authorization point switches over these three values.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

// IsStaff reports whether the role may act on behalf of other members.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// Account status values
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Loan status values
const (
	LoanStatusActive   = "ACTIVE"
	LoanStatusReturned = "RETURNED"
)

// Reservation status values
const (
	ReservationStatusActive    = "ACTIVE"
	ReservationStatusFulfilled = "FULFILLED"
	ReservationStatusCancelled = "CANCELLED"
)

// Fine status values
const (
	FineStatusPending = "PENDING"
	FineStatusSettled = "SETTLED"
)

// ============================================================
// Auth & Account Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      Role           `gorm:"size:20;not null;default:'MEMBER'" json:"role"`
	Status    string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Member represents members table; one member profile per MEMBER-role user
type Member struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string         `gorm:"size:100;not null" json:"full_name"`
	Email     string         `gorm:"size:100" json:"email"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Status    string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// MemberResponse DTO with lending and fine statistics
type MemberResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	TotalLoans   int64     `json:"total_loans"`
	ActiveLoans  int64     `json:"active_loans"`
	TotalFines   int64     `json:"total_fines"`
	PendingFines int64     `json:"pending_fines"`
	TotalPaid    float64   `json:"total_paid"`
	PendingDue   float64   `json:"pending_due"`
	CreatedAt    time.Time `json:"created_at"`
}

func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		FullName:  m.FullName,
		Email:     m.Email,
		Phone:     m.Phone,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// ============================================================
// Catalog Tables
// ============================================================

// Book represents books table
// Invariant: 0 <= available_copies <= total_copies after every mutation
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ISBN            string         `gorm:"column:isbn;uniqueIndex;size:20;not null" json:"isbn"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Author          string         `gorm:"size:255;not null" json:"author"`
	Category        string         `gorm:"size:100;index" json:"category"`
	TotalCopies     int            `gorm:"not null" json:"total_copies"`
	AvailableCopies int            `gorm:"not null" json:"available_copies"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO
type BookResponse struct {
	ID              uint      `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ============================================================
// Lending Tables
// ============================================================

// Loan represents loans table
// Status transition ACTIVE -> RETURNED is terminal and one-way.
type Loan struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BookID           uint       `gorm:"not null;index" json:"book_id"`
	MemberID         uint       `gorm:"not null;index" json:"member_id"`
	IssuedAt         time.Time  `gorm:"not null" json:"issued_at"`
	DueAt            time.Time  `gorm:"not null;index" json:"due_at"`
	ReturnedAt       *time.Time `json:"returned_at"`
	Status           string     `gorm:"size:15;not null;default:'ACTIVE';index" json:"status"`
	IssuedByUserID   uint       `gorm:"not null" json:"issued_by_user_id"`
	ReturnedByUserID *uint      `json:"returned_by_user_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Book   *Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsOverdue reports whether the loan is active and past due at the given time.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanStatusActive && now.After(l.DueAt)
}

// LoanResponse DTO
type LoanResponse struct {
	ID               uint       `json:"id"`
	BookID           uint       `json:"book_id"`
	MemberID         uint       `json:"member_id"`
	IssuedAt         time.Time  `json:"issued_at"`
	DueAt            time.Time  `json:"due_at"`
	ReturnedAt       *time.Time `json:"returned_at"`
	Status           string     `json:"status"`
	IssuedByUserID   uint       `json:"issued_by_user_id"`
	ReturnedByUserID *uint      `json:"returned_by_user_id"`
	BookTitle        string     `json:"book_title,omitempty"`
	BookISBN         string     `json:"book_isbn,omitempty"`
	MemberName       string     `json:"member_name,omitempty"`
}

func (l *Loan) ToResponse() *LoanResponse {
	resp := &LoanResponse{
		ID:               l.ID,
		BookID:           l.BookID,
		MemberID:         l.MemberID,
		IssuedAt:         l.IssuedAt,
		DueAt:            l.DueAt,
		ReturnedAt:       l.ReturnedAt,
		Status:           l.Status,
		IssuedByUserID:   l.IssuedByUserID,
		ReturnedByUserID: l.ReturnedByUserID,
	}

	if l.Book != nil {
		resp.BookTitle = l.Book.Title
		resp.BookISBN = l.Book.ISBN
	}
	if l.Member != nil {
		resp.MemberName = l.Member.FullName
	}

	return resp
}

// ============================================================
// Reservation Tables
// ============================================================

// Reservation represents reservations table
// QueuePosition is the position at enqueue time; the live position is
// always derived from created_at ordering among ACTIVE rows.
type Reservation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BookID        uint      `gorm:"not null;index" json:"book_id"`
	MemberID      uint      `gorm:"not null;index" json:"member_id"`
	Status        string    `gorm:"size:15;not null;default:'ACTIVE';index" json:"status"`
	QueuePosition int       `gorm:"not null" json:"queue_position"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Book   *Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// ReservationResponse DTO; QueueAhead is derived live from created_at ordering
type ReservationResponse struct {
	ID            uint      `json:"id"`
	BookID        uint      `json:"book_id"`
	MemberID      uint      `json:"member_id"`
	Status        string    `json:"status"`
	QueuePosition int       `json:"queue_position"`
	QueueAhead    int64     `json:"queue_ahead"`
	BookTitle     string    `json:"book_title,omitempty"`
	BookISBN      string    `json:"book_isbn,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *Reservation) ToResponse() *ReservationResponse {
	resp := &ReservationResponse{
		ID:            r.ID,
		BookID:        r.BookID,
		MemberID:      r.MemberID,
		Status:        r.Status,
		QueuePosition: r.QueuePosition,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if r.Book != nil {
		resp.BookTitle = r.Book.Title
		resp.BookISBN = r.Book.ISBN
	}

	return resp
}

// ============================================================
// Fine Tables
// ============================================================

// Fine represents fines table
// At most one PENDING fine per loan; PENDING -> SETTLED is one-way.
type Fine struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	LoanID          uint       `gorm:"not null;index" json:"loan_id"`
	MemberID        uint       `gorm:"not null;index" json:"member_id"`
	Amount          float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          string     `gorm:"size:15;not null;default:'PENDING';index" json:"status"`
	CalculatedAt    time.Time  `gorm:"not null" json:"calculated_at"`
	SettledAt       *time.Time `json:"settled_at"`
	SettledByUserID *uint      `json:"settled_by_user_id"`
	PaymentMethod   string     `gorm:"size:30" json:"payment_method"`
	PaymentRef      string     `gorm:"size:64" json:"payment_ref"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Loan   *Loan   `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Fine) TableName() string {
	return "fines"
}

// FineResponse DTO
type FineResponse struct {
	ID              uint       `json:"id"`
	LoanID          uint       `json:"loan_id"`
	MemberID        uint       `json:"member_id"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	CalculatedAt    time.Time  `json:"calculated_at"`
	SettledAt       *time.Time `json:"settled_at"`
	SettledByUserID *uint      `json:"settled_by_user_id"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	PaymentRef      string     `json:"payment_ref,omitempty"`
	MemberName      string     `json:"member_name,omitempty"`
	MemberEmail     string     `json:"member_email,omitempty"`
	BookTitle       string     `json:"book_title,omitempty"`
	BookISBN        string     `json:"book_isbn,omitempty"`
}

func (f *Fine) ToResponse() *FineResponse {
	resp := &FineResponse{
		ID:              f.ID,
		LoanID:          f.LoanID,
		MemberID:        f.MemberID,
		Amount:          f.Amount,
		Status:          f.Status,
		CalculatedAt:    f.CalculatedAt,
		SettledAt:       f.SettledAt,
		SettledByUserID: f.SettledByUserID,
		PaymentMethod:   f.PaymentMethod,
		PaymentRef:      f.PaymentRef,
	}

	if f.Member != nil {
		resp.MemberName = f.Member.FullName
		resp.MemberEmail = f.Member.Email
	}
	if f.Loan != nil && f.Loan.Book != nil {
		resp.BookTitle = f.Loan.Book.Title
		resp.BookISBN = f.Loan.Book.ISBN
	}

	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Member{},
		&Book{},
		&Loan{},
		&Reservation{},
		&Fine{},
	)
}
