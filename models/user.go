// models/user.go
package models

// User is the slice of the user profile this service reads.
type User struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	FCMToken string `bson:"fcmToken,omitempty" json:"-"`
}
