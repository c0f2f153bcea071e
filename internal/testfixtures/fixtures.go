package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/cobunny/internal/application"
)

var (
	userCounter    uint64
	bookingCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic directory record.
type UserFixture struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Password  string
	Favorites []int
	CreatedAt string
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// Emails stay unique across calls within a test binary.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:        int(idx),
		FirstName: "User",
		LastName:  fmt.Sprintf("%03d", idx),
		Email:     fmt.Sprintf("user-%03d@example.com", idx),
		Password:  fmt.Sprintf("password-%03d", idx),
		Favorites: []int{},
		CreatedAt: referenceTime.Format(time.DateOnly),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the fixture identifier.
func WithUserID(id int) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithEmail overrides the fixture email.
func WithEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithPassword overrides the stored password.
func WithPassword(password string) UserOption {
	return func(f *UserFixture) {
		f.Password = password
	}
}

// WithFavorites overrides the favorites list.
func WithFavorites(spaceIDs ...int) UserOption {
	return func(f *UserFixture) {
		f.Favorites = append([]int{}, spaceIDs...)
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Password:  f.Password,
		Favorites: append([]int{}, f.Favorites...),
		CreatedAt: f.CreatedAt,
	}
}

// SignUp returns the fixture as sign-up input.
func (f UserFixture) SignUp() application.SignUpInput {
	return application.SignUpInput{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Password:  f.Password,
	}
}

// Users converts fixtures into a directory list.
func Users(fixtures ...UserFixture) []application.User {
	users := make([]application.User, len(fixtures))
	for i, f := range fixtures {
		users[i] = f.Application()
	}
	return users
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents deterministic booking input.
type BookingFixture struct {
	UserID    int
	SpaceID   int
	Date      string
	StartTime string
	EndTime   string
	Guests    int
	Notes     string
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a booking fixture on consecutive days.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		UserID:    1,
		SpaceID:   int(1 + idx%5),
		Date:      referenceTime.AddDate(0, 0, int(idx)).Format(time.DateOnly),
		StartTime: "09:00",
		EndTime:   "17:00",
		Guests:    1,
		Notes:     fmt.Sprintf("booking %03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// ForUser sets the owning user.
func ForUser(userID int) BookingOption {
	return func(f *BookingFixture) {
		f.UserID = userID
	}
}

// ForSpace sets the booked space.
func ForSpace(spaceID int) BookingOption {
	return func(f *BookingFixture) {
		f.SpaceID = spaceID
	}
}

// Input returns the fixture as application.BookingInput.
func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		UserID:    f.UserID,
		SpaceID:   f.SpaceID,
		Date:      f.Date,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Guests:    f.Guests,
		Notes:     f.Notes,
	}
}
