package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

const authEventsCollection = "auth_events"

// AuditRepository appends auth events to the auth_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(authEventsCollection)}
}

type mongoAuthEvent struct {
	Type       string    `bson:"type"`
	Email      string    `bson:"email"`
	UserID     string    `bson:"user_id,omitempty"`
	Role       string    `bson:"role,omitempty"`
	IP         string    `bson:"ip,omitempty"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

// EnsureIndexes supports per-account lookups ordered by time.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("email_occurred_at"),
	})
	if err != nil {
		return fmt.Errorf("create auth_events index: %w", err)
	}
	return nil
}

func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuthEvent) error {
	doc := mongoAuthEvent{
		Type:       string(ev.Type),
		Email:      ev.Email,
		UserID:     ev.UserID,
		Role:       string(ev.Role),
		IP:         ev.IP,
		UserAgent:  ev.UserAgent,
		OccurredAt: ev.OccurredAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
