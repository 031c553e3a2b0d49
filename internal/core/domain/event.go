package domain

import "time"

// Topic names a user lifecycle event on the broker.
type Topic string

const (
	TopicUserCreated         Topic = "user.created"
	TopicUserUpdated         Topic = "user.updated"
	TopicUserDeleted         Topic = "user.deleted"
	TopicUserLogin           Topic = "user.login"
	TopicUserLoginFailed     Topic = "user.login.failed"
	TopicUserPasswordChanged Topic = "user.password.changed"
)

// Event is one of the user lifecycle events below. The set is closed:
// only types in this package implement it.
type Event interface {
	Topic() Topic
	// Key groups events that must stay ordered relative to each other.
	Key() string
	OccurredAt() time.Time
	sealed()
}

type UserCreated struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type UserUpdated struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	Fields    []string  `json:"fields"`
	Timestamp time.Time `json:"timestamp"`
}

type UserDeleted struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type UserLoggedIn struct {
	SubjectID string    `json:"subjectId"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

type UserLoginFailed struct {
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

type UserPasswordChanged struct {
	SubjectID string    `json:"subjectId"`
	Timestamp time.Time `json:"timestamp"`
}

func (UserCreated) Topic() Topic         { return TopicUserCreated }
func (UserUpdated) Topic() Topic         { return TopicUserUpdated }
func (UserDeleted) Topic() Topic         { return TopicUserDeleted }
func (UserLoggedIn) Topic() Topic        { return TopicUserLogin }
func (UserLoginFailed) Topic() Topic     { return TopicUserLoginFailed }
func (UserPasswordChanged) Topic() Topic { return TopicUserPasswordChanged }

func (e UserCreated) Key() string         { return e.ID }
func (e UserUpdated) Key() string         { return e.ID }
func (e UserDeleted) Key() string         { return e.ID }
func (e UserLoggedIn) Key() string        { return e.SubjectID }
func (e UserLoginFailed) Key() string     { return e.Email }
func (e UserPasswordChanged) Key() string { return e.SubjectID }

func (e UserCreated) OccurredAt() time.Time         { return e.Timestamp }
func (e UserUpdated) OccurredAt() time.Time         { return e.Timestamp }
func (e UserDeleted) OccurredAt() time.Time         { return e.Timestamp }
func (e UserLoggedIn) OccurredAt() time.Time        { return e.Timestamp }
func (e UserLoginFailed) OccurredAt() time.Time     { return e.Timestamp }
func (e UserPasswordChanged) OccurredAt() time.Time { return e.Timestamp }

func (UserCreated) sealed()         {}
func (UserUpdated) sealed()         {}
func (UserDeleted) sealed()         {}
func (UserLoggedIn) sealed()        {}
func (UserLoginFailed) sealed()     {}
func (UserPasswordChanged) sealed() {}
