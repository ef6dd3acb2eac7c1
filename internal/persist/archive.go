package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/chatdeck/chatdeck/internal/types"
)

// messageColumns is the explicit column list for SELECT queries.
const messageColumns = `id, conversation_id, author, body, ts, is_question, sentiment, flagged, platform`

// RecordMessage appends a message to the archive. Re-delivered messages
// with a known id are ignored.
func (a *Archive) RecordMessage(msg types.Message) error {
	bucket := time.UnixMilli(msg.TS).UTC().Format("2006-01-02")
	_, err := a.db.Exec(`
		INSERT OR IGNORE INTO messages
		(id, conversation_id, author, body, ts, is_question, sentiment, flagged, platform, date_bucket)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Author, msg.Text, msg.TS,
		boolToInt(msg.IsQuestion), string(msg.Sentiment), boolToInt(msg.Flagged),
		string(msg.Platform), bucket)
	return err
}

// FetchPage returns one page of history for a conversation, newest last.
// BeforeID pages backward from a known message; DateBucket narrows to one
// UTC day.
func (a *Archive) FetchPage(ctx context.Context, req types.PageRequest) (types.Page, error) {
	where := []string{"conversation_id = ?"}
	args := []any{req.ConversationID}

	if req.BeforeID != "" {
		where = append(where, "seq < (SELECT seq FROM messages WHERE id = ?)")
		args = append(args, req.BeforeID)
	}
	if req.DateBucket != "" {
		where = append(where, "date_bucket = ?")
		args = append(args, req.DateBucket)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	// Fetch one extra row to learn whether more history remains.
	query := "SELECT " + messageColumns + " FROM messages WHERE " +
		strings.Join(where, " AND ") + " ORDER BY seq DESC LIMIT ?"
	rows, err := a.db.QueryContext(ctx, query, append(args, limit+1)...)
	if err != nil {
		return types.Page{}, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return types.Page{}, err
	}

	page := types.Page{HasMore: len(messages) > limit}
	if page.HasMore {
		messages = messages[:limit]
	}
	// Rows came newest first; the page reads oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	page.Messages = messages

	countWhere := []string{"conversation_id = ?"}
	countArgs := []any{req.ConversationID}
	if req.DateBucket != "" {
		countWhere = append(countWhere, "date_bucket = ?")
		countArgs = append(countArgs, req.DateBucket)
	}
	err = a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE "+strings.Join(countWhere, " AND "),
		countArgs...).Scan(&page.TotalCount)
	if err != nil {
		return types.Page{}, err
	}
	return page, nil
}

// Search finds archived messages whose body or author contains the query,
// newest first.
func (a *Archive) Search(ctx context.Context, conversationID, query string, limit int) (types.Page, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		  AND (body LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\')
		ORDER BY seq DESC LIMIT ?`,
		conversationID, pattern, pattern, limit)
	if err != nil {
		return types.Page{}, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return types.Page{}, err
	}
	return types.Page{Messages: messages, TotalCount: len(messages)}, nil
}

// AvailableDates lists the UTC days with archived history for a
// conversation, newest first.
func (a *Archive) AvailableDates(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT DISTINCT date_bucket FROM messages
		WHERE conversation_id = ? ORDER BY date_bucket DESC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// SaveAnchors replaces the stored read anchors.
func (a *Archive) SaveAnchors(anchors map[string]string) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM read_anchors"); err != nil {
		return err
	}
	for conv, msgID := range anchors {
		if _, err := tx.Exec(
			"INSERT INTO read_anchors (conversation_id, message_id) VALUES (?, ?)",
			conv, msgID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SavePreferences stores the UI preferences.
func (a *Archive) SavePreferences(prefs types.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(
		"INSERT INTO prefs (key, value) VALUES ('ui', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		string(data))
	return err
}

// Snapshot loads the most recent messages plus anchors and preferences,
// the state restored into the in-memory buffer on startup.
func (a *Archive) Snapshot(limit int) (types.Snapshot, error) {
	var snap types.Snapshot

	rows, err := a.db.Query(
		"SELECT "+messageColumns+" FROM messages ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return snap, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return snap, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	snap.Messages = messages

	snap.ReadAnchors = make(map[string]string)
	anchorRows, err := a.db.Query("SELECT conversation_id, message_id FROM read_anchors")
	if err != nil {
		return snap, err
	}
	defer anchorRows.Close()
	for anchorRows.Next() {
		var conv, msgID string
		if err := anchorRows.Scan(&conv, &msgID); err != nil {
			return snap, err
		}
		snap.ReadAnchors[conv] = msgID
	}
	if err := anchorRows.Err(); err != nil {
		return snap, err
	}

	var prefsJSON string
	err = a.db.QueryRow("SELECT value FROM prefs WHERE key = 'ui'").Scan(&prefsJSON)
	switch err {
	case nil:
		if err := json.Unmarshal([]byte(prefsJSON), &snap.Preferences); err != nil {
			return snap, err
		}
	case sql.ErrNoRows:
	default:
		return snap, err
	}
	return snap, nil
}

// RememberConversation records a closed conversation so it can be
// reopened later.
func (a *Archive) RememberConversation(rc types.RecentConversation) error {
	_, err := a.db.Exec(`
		INSERT INTO recent_conversations (id, source_url, platform, title, closed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET closed_at = excluded.closed_at, title = excluded.title`,
		rc.ID, rc.SourceURL, string(rc.Platform), rc.Title, rc.LastViewed)
	return err
}

// RecentConversations lists remembered conversations, most recently
// closed first.
func (a *Archive) RecentConversations(limit int) ([]types.RecentConversation, error) {
	rows, err := a.db.Query(`
		SELECT id, source_url, platform, title, closed_at
		FROM recent_conversations ORDER BY closed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []types.RecentConversation
	for rows.Next() {
		var rc types.RecentConversation
		var platform string
		if err := rows.Scan(&rc.ID, &rc.SourceURL, &platform, &rc.Title, &rc.LastViewed); err != nil {
			return nil, err
		}
		rc.Platform = types.Platform(platform)
		recent = append(recent, rc)
	}
	return recent, rows.Err()
}

func scanMessages(rows *sql.Rows) ([]types.Message, error) {
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var msg types.Message
		var isQuestion, flagged int
		var sentiment, platform string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Author, &msg.Text,
			&msg.TS, &isQuestion, &sentiment, &flagged, &platform); err != nil {
			return nil, err
		}
		msg.IsQuestion = isQuestion != 0
		msg.Flagged = flagged != 0
		msg.Sentiment = types.Sentiment(sentiment)
		msg.Platform = types.Platform(platform)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
