package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const academicCollection = "academic_records"

// mongoAcademicDocument stores the user id as its canonical string so the
// unique index and filters stay readable from the mongo shell.
type mongoAcademicDocument struct {
	UserID          string `bson:"user_id"`
	academic.Record `bson:",inline"`
}

type mongoAcademicRepo struct {
	coll   *mongo.Collection
	logger logger.Logger
	now    func() time.Time
}

func NewMongoAcademicRepo(ctx context.Context, db *mongo.Database, log logger.Logger) (academic.Repository, error) {
	coll := db.Collection(academicCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_id"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure academic index: %w", err)
	}
	return &mongoAcademicRepo{coll: coll, logger: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

func byUser(userID uuid.UUID) bson.M {
	return bson.M{"user_id": userID.String()}
}

func (d *mongoAcademicDocument) toRecord() (*academic.Record, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("stored academic record has invalid user_id %q: %w", d.UserID, err)
	}
	r := academic.NewRecord(userID, d.CreatedAt)
	r.Apply(academic.Patch{
		Qualifications:   &d.Qualifications,
		Experience:       &d.Experience,
		Publications:     &d.Publications,
		ResearchInterest: d.ResearchInterest,
	}, d.UpdatedAt)
	return r, nil
}

func sectionsSet(r *academic.Record) bson.M {
	return bson.M{
		"qualifications":    r.Qualifications,
		"experience":        r.Experience,
		"publications":      r.Publications,
		"research_interest": r.ResearchInterest,
		"updated_at":        r.UpdatedAt,
	}
}

func (r *mongoAcademicRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*academic.Record, error) {
	var doc mongoAcademicDocument
	if err := r.coll.FindOne(ctx, byUser(userID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, academic.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to find academic record: %w", err)
	}
	return doc.toRecord()
}

func (r *mongoAcademicRepo) Upsert(ctx context.Context, rec *academic.Record) (bool, error) {
	update := bson.M{
		"$set":         sectionsSet(rec),
		"$setOnInsert": bson.M{"created_at": rec.CreatedAt},
	}
	res, err := r.coll.UpdateOne(ctx, byUser(rec.UserID), update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to upsert academic record: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *mongoAcademicRepo) Update(ctx context.Context, rec *academic.Record) error {
	res, err := r.coll.UpdateOne(ctx, byUser(rec.UserID), bson.M{"$set": sectionsSet(rec)})
	if err != nil {
		return fmt.Errorf("failed to update academic record: %w", err)
	}
	if res.MatchedCount == 0 {
		return academic.ErrRecordNotFound
	}
	return nil
}

func (r *mongoAcademicRepo) Create(ctx context.Context, rec *academic.Record) error {
	_, err := r.coll.InsertOne(ctx, mongoAcademicDocument{UserID: rec.UserID.String(), Record: *rec})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return academic.ErrRecordExists
		}
		return fmt.Errorf("failed to insert academic record: %w", err)
	}
	return nil
}

// AttachDocument matches only when the addressed element exists, so the
// write is a single atomic statement. The path comes from the typed selector,
// never from raw input.
func (r *mongoAcademicRepo) AttachDocument(ctx context.Context, userID uuid.UUID, sel academic.DocumentSelector, url string) (*academic.Record, string, error) {
	now := r.now()
	filter := byUser(userID)
	filter[sel.ArrayField()+"."+strconv.Itoa(sel.Index)] = bson.M{"$exists": true}
	update := bson.M{"$set": bson.M{sel.Path(): url, "updated_at": now}}

	var before mongoAcademicDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", r.missingSlotError(ctx, userID, sel)
		}
		return nil, "", fmt.Errorf("failed to attach document: %w", err)
	}

	rec, err := before.toRecord()
	if err != nil {
		return nil, "", err
	}
	prev, err := rec.AttachDocument(sel, url)
	if err != nil {
		return nil, "", err
	}
	rec.UpdatedAt = now
	return rec, prev, nil
}

func (r *mongoAcademicRepo) missingSlotError(ctx context.Context, userID uuid.UUID, sel academic.DocumentSelector) error {
	rec, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := rec.CheckSlot(sel); err != nil {
		return err
	}
	return fmt.Errorf("failed to attach document at %s", sel)
}
