package dynamodb

import (
	"context"
	"time"

	"mnemo-backend/application/ports"
	domainmemory "mnemo-backend/domain/memory"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// shortTermItem is the table representation of a short-term memory record
type shortTermItem struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	GSI1PK    string    `dynamodbav:"GSI1PK"`
	GSI1SK    string    `dynamodbav:"GSI1SK"`
	ID        string    `dynamodbav:"ID"`
	Content   string    `dynamodbav:"Content"`
	Timestamp time.Time `dynamodbav:"Timestamp"`
}

type longTermItem struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	GSI1PK       string    `dynamodbav:"GSI1PK"`
	GSI1SK       string    `dynamodbav:"GSI1SK"`
	ID           string    `dynamodbav:"ID"`
	Content      string    `dynamodbav:"Content"`
	Summary      string    `dynamodbav:"Summary"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt"`
	LastAccessed time.Time `dynamodbav:"LastAccessed"`
}

type episodicItem struct {
	PK               string    `dynamodbav:"PK"`
	SK               string    `dynamodbav:"SK"`
	GSI1PK           string    `dynamodbav:"GSI1PK"`
	GSI1SK           string    `dynamodbav:"GSI1SK"`
	ID               string    `dynamodbav:"ID"`
	EventDescription string    `dynamodbav:"EventDescription"`
	Participants     []string  `dynamodbav:"Participants,omitempty"`
	ContextualCues   []string  `dynamodbav:"ContextualCues,omitempty"`
	Location         string    `dynamodbav:"Location,omitempty"`
	Timestamp        time.Time `dynamodbav:"Timestamp"`
}

type noteItem struct {
	PK                string    `dynamodbav:"PK"`
	SK                string    `dynamodbav:"SK"`
	GSI1PK            string    `dynamodbav:"GSI1PK"`
	GSI1SK            string    `dynamodbav:"GSI1SK"`
	ID                string    `dynamodbav:"ID"`
	OriginalText      string    `dynamodbav:"OriginalText"`
	Summary           string    `dynamodbav:"Summary,omitempty"`
	Topics            []string  `dynamodbav:"Topics,omitempty"`
	ExtractedKeywords []string  `dynamodbav:"ExtractedKeywords,omitempty"`
	LastAccessed      time.Time `dynamodbav:"LastAccessed"`
}

func sortKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ShortTermRepository persists short-term memories in the shared table
type ShortTermRepository struct {
	client *Client
}

func NewShortTermRepository(client *Client) *ShortTermRepository {
	return &ShortTermRepository{client: client}
}

func (r *ShortTermRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*domainmemory.ShortTermMemory, error) {
	items, err := r.client.queryCollection(ctx, collectionShortTerm, q, []string{"Content"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("short_term", err)
	}
	records := make([]*domainmemory.ShortTermMemory, 0, len(items))
	for _, item := range items {
		var it shortTermItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("short_term", err)
		}
		records = append(records, &domainmemory.ShortTermMemory{
			ID:        it.ID,
			Content:   it.Content,
			Timestamp: it.Timestamp,
		})
	}
	return records, nil
}

func (r *ShortTermRepository) Save(ctx context.Context, m *domainmemory.ShortTermMemory) error {
	item, err := attributevalue.MarshalMap(shortTermItem{
		PK:        pk(collectionShortTerm, m.ID),
		SK:        skMetadata,
		GSI1PK:    collectionShortTerm,
		GSI1SK:    sortKey(m.Timestamp),
		ID:        m.ID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	})
	if err != nil {
		return pkgerrors.NewStorePersistFailed("short_term", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("short_term", err)
	}
	return nil
}

// LongTermRepository persists long-term memories in the shared table
type LongTermRepository struct {
	client *Client
}

func NewLongTermRepository(client *Client) *LongTermRepository {
	return &LongTermRepository{client: client}
}

func (r *LongTermRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*domainmemory.LongTermMemory, error) {
	items, err := r.client.queryCollection(ctx, collectionLongTerm, q, []string{"Content", "Summary"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("long_term", err)
	}
	records := make([]*domainmemory.LongTermMemory, 0, len(items))
	for _, item := range items {
		var it longTermItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("long_term", err)
		}
		records = append(records, &domainmemory.LongTermMemory{
			ID:           it.ID,
			Content:      it.Content,
			Summary:      it.Summary,
			CreatedAt:    it.CreatedAt,
			LastAccessed: it.LastAccessed,
		})
	}
	return records, nil
}

func (r *LongTermRepository) Save(ctx context.Context, m *domainmemory.LongTermMemory) error {
	item, err := attributevalue.MarshalMap(longTermItem{
		PK:           pk(collectionLongTerm, m.ID),
		SK:           skMetadata,
		GSI1PK:       collectionLongTerm,
		GSI1SK:       sortKey(m.LastAccessed),
		ID:           m.ID,
		Content:      m.Content,
		Summary:      m.Summary,
		CreatedAt:    m.CreatedAt,
		LastAccessed: m.LastAccessed,
	})
	if err != nil {
		return pkgerrors.NewStorePersistFailed("long_term", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("long_term", err)
	}
	return nil
}

// EpisodicRepository persists episodic memories in the shared table
type EpisodicRepository struct {
	client *Client
}

func NewEpisodicRepository(client *Client) *EpisodicRepository {
	return &EpisodicRepository{client: client}
}

func (r *EpisodicRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*domainmemory.EpisodicMemory, error) {
	items, err := r.client.queryCollection(ctx, collectionEpisodic, q,
		[]string{"EventDescription", "Participants", "ContextualCues", "Location"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("episodic", err)
	}
	records := make([]*domainmemory.EpisodicMemory, 0, len(items))
	for _, item := range items {
		var it episodicItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("episodic", err)
		}
		records = append(records, &domainmemory.EpisodicMemory{
			ID:               it.ID,
			EventDescription: it.EventDescription,
			Participants:     it.Participants,
			ContextualCues:   it.ContextualCues,
			Location:         it.Location,
			Timestamp:        it.Timestamp,
		})
	}
	return records, nil
}

func (r *EpisodicRepository) Save(ctx context.Context, m *domainmemory.EpisodicMemory) error {
	item, err := attributevalue.MarshalMap(episodicItem{
		PK:               pk(collectionEpisodic, m.ID),
		SK:               skMetadata,
		GSI1PK:           collectionEpisodic,
		GSI1SK:           sortKey(m.Timestamp),
		ID:               m.ID,
		EventDescription: m.EventDescription,
		Participants:     m.Participants,
		ContextualCues:   m.ContextualCues,
		Location:         m.Location,
		Timestamp:        m.Timestamp,
	})
	if err != nil {
		return pkgerrors.NewStorePersistFailed("episodic", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("episodic", err)
	}
	return nil
}

// NoteRepository persists notes in the shared table
type NoteRepository struct {
	client *Client
}

func NewNoteRepository(client *Client) *NoteRepository {
	return &NoteRepository{client: client}
}

func (r *NoteRepository) Match(ctx context.Context, q ports.MatchQuery) ([]*domainmemory.Note, error) {
	items, err := r.client.queryCollection(ctx, collectionNote, q,
		[]string{"OriginalText", "Summary", "Topics", "ExtractedKeywords"})
	if err != nil {
		return nil, pkgerrors.NewStoreFetchFailed("notes", err)
	}
	records := make([]*domainmemory.Note, 0, len(items))
	for _, item := range items {
		var it noteItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, pkgerrors.NewStoreFetchFailed("notes", err)
		}
		records = append(records, &domainmemory.Note{
			ID:                it.ID,
			OriginalText:      it.OriginalText,
			Summary:           it.Summary,
			Topics:            it.Topics,
			ExtractedKeywords: it.ExtractedKeywords,
			LastAccessed:      it.LastAccessed,
		})
	}
	return records, nil
}

func (r *NoteRepository) Save(ctx context.Context, n *domainmemory.Note) error {
	item, err := attributevalue.MarshalMap(noteItem{
		PK:                pk(collectionNote, n.ID),
		SK:                skMetadata,
		GSI1PK:            collectionNote,
		GSI1SK:            sortKey(n.LastAccessed),
		ID:                n.ID,
		OriginalText:      n.OriginalText,
		Summary:           n.Summary,
		Topics:            n.Topics,
		ExtractedKeywords: n.ExtractedKeywords,
		LastAccessed:      n.LastAccessed,
	})
	if err != nil {
		return pkgerrors.NewStorePersistFailed("notes", err)
	}
	if err := r.client.putItem(ctx, item); err != nil {
		return pkgerrors.NewStorePersistFailed("notes", err)
	}
	return nil
}
