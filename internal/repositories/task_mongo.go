package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"kediacrm/internal/models"
)

type taskDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Task           string             `bson:"task"`
	GivenBy        string             `bson:"givenBy"`
	GivenTo        primitive.ObjectID `bson:"givenTo"`
	DateAllocation time.Time          `bson:"dateAllocation"`
	TargetDate     *time.Time         `bson:"targetDate,omitempty"`
	Priority       string             `bson:"priority"`
	Status         string             `bson:"status"`
	StepsTaken     string             `bson:"stepsTaken,omitempty"`
	LastUpdated    *time.Time         `bson:"lastUpdated,omitempty"`
	NextUpdate     *time.Time         `bson:"nextUpdate,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:             hexOrEmpty(d.ID),
		Description:    d.Task,
		GivenBy:        d.GivenBy,
		GivenTo:        hexOrEmpty(d.GivenTo),
		DateAllocation: d.DateAllocation,
		TargetDate:     d.TargetDate,
		Priority:       models.TaskPriority(d.Priority),
		Status:         models.TaskStatus(d.Status),
		StepsTaken:     d.StepsTaken,
		LastUpdated:    d.LastUpdated,
		NextUpdate:     d.NextUpdate,
		CreatedAt:      d.CreatedAt,
	}
}

// TaskMongo stores tasks in the "tasks" collection.
type TaskMongo struct {
	store *MongoStore
	coll  *mongo.Collection
}

func (r *TaskMongo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *TaskMongo) List(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, sortByID)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	out := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *TaskMongo) Get(ctx context.Context, id string) (*models.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	var doc taskDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	t := doc.toModel()
	return &t, nil
}

func (r *TaskMongo) Insert(ctx context.Context, task *models.Task) (*models.Task, error) {
	givenTo, ok := objectID(task.GivenTo)
	if !ok {
		return nil, fmt.Errorf("givenTo %q: %w", task.GivenTo, ErrNotFound)
	}
	doc := taskDocument{
		ID:             primitive.NewObjectID(),
		Task:           task.Description,
		GivenBy:        task.GivenBy,
		GivenTo:        givenTo,
		DateAllocation: task.DateAllocation,
		TargetDate:     task.TargetDate,
		Priority:       string(task.Priority),
		Status:         string(task.Status),
		StepsTaken:     task.StepsTaken,
		LastUpdated:    task.LastUpdated,
		NextUpdate:     task.NextUpdate,
		CreatedAt:      task.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	t := doc.toModel()
	return &t, nil
}

func taskSet(p models.TaskPatch) (bson.M, error) {
	set := bson.M{}
	if p.Description != nil {
		set["task"] = *p.Description
	}
	if p.GivenBy != nil {
		set["givenBy"] = *p.GivenBy
	}
	if p.GivenTo != nil {
		oid, ok := objectID(*p.GivenTo)
		if !ok {
			return nil, fmt.Errorf("givenTo %q: %w", *p.GivenTo, ErrNotFound)
		}
		set["givenTo"] = oid
	}
	if p.DateAllocation != nil {
		set["dateAllocation"] = *p.DateAllocation
	}
	if p.TargetDate != nil {
		set["targetDate"] = *p.TargetDate
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.StepsTaken != nil {
		set["stepsTaken"] = *p.StepsTaken
	}
	if p.LastUpdated != nil {
		set["lastUpdated"] = *p.LastUpdated
	}
	if p.NextUpdate != nil {
		set["nextUpdate"] = *p.NextUpdate
	}
	return set, nil
}

func (r *TaskMongo) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	set, err := taskSet(patch)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		t, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, ErrNotFound
		}
		return t, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	var doc taskDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	t := doc.toModel()
	return &t, nil
}

func (r *TaskMongo) Remove(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}
