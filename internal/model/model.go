package model

import "time"

// User is the authenticated account record returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Gender    string    `json:"gender"`
	BirthDate time.Time `json:"birthDate"`
	Role      string    `json:"role"`
	Photo     string    `json:"photo,omitempty"`
	Premium   bool      `json:"isPremium"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the account carries the admin role flag.
func (u User) IsAdmin() bool { return u.Role == "admin" }

// Profile is a denormalized, read-only snapshot of another user's public
// attributes plus the viewer's interaction flags.
//
// The interaction flags are one-way booleans for the lifetime of the
// session: once flipped to true by a successful interest/shortlist call
// they are never reset by the client.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Gender        string    `json:"gender"`
	BirthDate     time.Time `json:"birthDate"`
	Photos        []string  `json:"photos,omitempty"`
	Religion      string    `json:"religion,omitempty"`
	Caste         string    `json:"caste,omitempty"`
	MotherTongue  string    `json:"motherTongue,omitempty"`
	Occupation    string    `json:"occupation,omitempty"`
	Education     string    `json:"education,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	Country       string    `json:"country,omitempty"`
	HeightCM      int       `json:"heightCm,omitempty"`
	MaritalStatus string    `json:"maritalStatus,omitempty"`
	Diet          string    `json:"diet,omitempty"`
	AboutMe       string    `json:"aboutMe,omitempty"`
	Verified      bool      `json:"isVerified"`
	MatchScore    int       `json:"matchScore,omitempty"`
	JoinedAt      time.Time `json:"joinedAt"`

	HasShownInterest      bool `json:"hasShownInterest"`
	HasShownSuperInterest bool `json:"hasShownSuperInterest"`
	IsShortlisted         bool `json:"isShortlisted"`
}

// Age derives the profile's age in full years at the given instant.
func (p Profile) Age(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Reaction is an aggregated emoji reaction on a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message belongs to exactly one conversation, keyed by the counterpart's
// identifier (whichever of sender/receiver is not the current user).
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Content    string     `json:"content"`
	SentAt     time.Time  `json:"sentAt"`
	Read       bool       `json:"isRead"`
	Reactions  []Reaction `json:"reactions,omitempty"`

	// Delivery tracks client-side optimistic sends: "pending" until the
	// backend confirms, "failed" if the send is rejected, empty for
	// server-sourced messages. Never serialized.
	Delivery string `json:"-"`
}

// Room is a chat room summary: the counterpart, the latest message
// preview, and the unread counter shown on the conversation list.
type Room struct {
	CounterpartID    string    `json:"counterpartId"`
	CounterpartName  string    `json:"counterpartName"`
	CounterpartPhoto string    `json:"counterpartPhoto,omitempty"`
	Online           bool      `json:"isOnline"`
	LastSeen         time.Time `json:"lastSeen,omitempty"`
	LastMessage      string    `json:"lastMessage,omitempty"`
	LastMessageAt    time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount      int       `json:"unreadCount"`
}

// Notification type tags. The backend vocabulary is small and fixed;
// anything else is treated as NotificationOther by consumers.
const (
	NotificationMatchOfDay       = "match_of_day"
	NotificationProfileLive      = "profile_live"
	NotificationProfileView      = "profile_view"
	NotificationInterestReceived = "interest_received"
	NotificationPremiumReminder  = "premium_reminder"
	NotificationOther            = "other"
)

type Notification struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Message       string    `json:"message,omitempty"`
	Read          bool      `json:"isRead"`
	RelatedUserID string    `json:"relatedUserId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ReadAt        time.Time `json:"readAt,omitempty"`
}

// Plan is a purchasable subscription tier.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	AmountPaise  int64    `json:"amount"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features,omitempty"`
}

// Subscription is the viewer's current subscription, if any.
type Subscription struct {
	PlanID    string    `json:"planId"`
	PlanName  string    `json:"planName"`
	Active    bool      `json:"isActive"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Order is the checkout descriptor handed to the hosted payment provider.
type Order struct {
	ID          string `json:"orderId"`
	PlanID      string `json:"planId"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Verification states shared by ID-proof and photo verification.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

type VerificationStatus struct {
	IDProof       string    `json:"idProofStatus"`
	PhotoStatus   string    `json:"photoStatus"`
	SubmittedAt   time.Time `json:"submittedAt,omitempty"`
	ReviewedAt    time.Time `json:"reviewedAt,omitempty"`
	RejectionNote string    `json:"rejectionNote,omitempty"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers           int `json:"totalUsers"`
	ActiveUsers          int `json:"activeUsers"`
	PremiumUsers         int `json:"premiumUsers"`
	PendingVerifications int `json:"pendingVerifications"`
	OpenReports          int `json:"openReports"`
}

// AdminUser is a user row in the admin console listing.
type AdminUser struct {
	User
	Banned      bool      `json:"isBanned"`
	LastLoginAt time.Time `json:"lastLoginAt,omitempty"`
}
