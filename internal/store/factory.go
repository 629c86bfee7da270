package store

import (
	"devassist.app/engine/core/db"
)

type Stores struct {
	db *db.DB
}

func NewStores(database *db.DB) *Stores {
	return &Stores{db: database}
}

func (s *Stores) Feedback() FeedbackStore {
	return newFeedbackStore(s.db)
}

func (s *Stores) Developers() DeveloperStore {
	return newDeveloperStore(s.db)
}

func (s *Stores) Standards() StandardsStore {
	return newStandardsStore(s.db)
}
