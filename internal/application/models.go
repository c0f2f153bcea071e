package application

import "time"

// Booking statuses written by the ledger.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// User is a directory record. Password holds either the plaintext value or an
// argon2id hash depending on the configured scheme.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Favorites []int  `json:"favorites"`
	CreatedAt string `json:"createdAt"`
}

// Profile is a user record without its password.
type Profile struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Favorites []int  `json:"favorites"`
	CreatedAt string `json:"createdAt"`
}

// Profile returns the redacted projection of the user.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Favorites: cloneInts(u.Favorites),
		CreatedAt: u.CreatedAt,
	}
}

// SignUpInput captures the fields supplied when registering an account.
type SignUpInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Outcome reports the result of a sign-in or sign-up attempt. Err carries the
// sentinel for unsuccessful attempts so callers can branch with errors.Is.
type Outcome struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *Profile `json:"user"`
	Err     error    `json:"-"`
}

// Booking is a ledger record.
type Booking struct {
	ID          int        `json:"id"`
	UserID      int        `json:"userId"`
	SpaceID     int        `json:"spaceId"`
	Date        string     `json:"date"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	Guests      int        `json:"guests"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	UserID    int    `json:"userId"`
	SpaceID   int    `json:"spaceId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Guests    int    `json:"guests"`
	Notes     string `json:"notes"`
}

// BookingPatch lists the fields Update may overwrite. Nil fields are left untouched.
type BookingPatch struct {
	SpaceID   *int    `json:"spaceId,omitempty"`
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Guests    *int    `json:"guests,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// BookingStats summarizes the ledger.
type BookingStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

func cloneInts(values []int) []int {
	if values == nil {
		return []int{}
	}
	cloned := make([]int, len(values))
	copy(cloned, values)
	return cloned
}

func cloneBooking(b Booking) Booking {
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		b.UpdatedAt = &t
	}
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		b.CancelledAt = &t
	}
	return b
}
