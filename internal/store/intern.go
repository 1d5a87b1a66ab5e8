package store

import (
	"context"
	"fmt"
)

// InternFetcher returns the f_id for (displayName, host, apiFlavor),
// inserting it on first use.
func InternFetcher(ctx context.Context, q db, displayName, host, apiFlavor string) (int64, error) {
	var fid int64
	err := q.QueryRow(ctx, `
		INSERT INTO fetchers (display_name, host, api_flavor)
		VALUES ($1, $2, $3)
		ON CONFLICT (display_name, host, api_flavor) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING f_id
	`, displayName, host, apiFlavor).Scan(&fid)
	if err != nil {
		return 0, fmt.Errorf("intern fetcher %s@%s: %w", displayName, host, err)
	}
	return fid, nil
}

// InternFetcherByName resolves a transport's provenance (name, host) to
// a durable fetcher id, interning it on first use. The api flavor is
// the third-party service surface the transport was configured to
// reach; the dispatcher passes the flavor of the request it is
// currently serving.
func (s *Store) InternFetcherByName(ctx context.Context, displayName, host, apiFlavor string) (int64, error) {
	return InternFetcher(ctx, s.pool, displayName, host, apiFlavor)
}

// InternLocation inserts (code, name) if code has not been seen before.
// Insert-or-ignore: an existing location's display name is never
// overwritten by a later, possibly stale, payload.
func InternLocation(ctx context.Context, q db, code, name string) error {
	if code == "" {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO locations (code, display_name) VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`, code, name)
	if err != nil {
		return fmt.Errorf("intern location %s: %w", code, err)
	}
	return nil
}

// InternTopic returns the t_id for name, creating it lazily on first
// use.
func InternTopic(ctx context.Context, q db, name string) (int64, error) {
	var tid int64
	err := q.QueryRow(ctx, `
		INSERT INTO topics (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING t_id
	`, name).Scan(&tid)
	if err != nil {
		return 0, fmt.Errorf("intern topic %s: %w", name, err)
	}
	return tid, nil
}

// InternQueryKeyword interns a plain query-string keyword (no title,
// no topic).
func InternQueryKeyword(ctx context.Context, q db, queryOrTopicID string) (int64, error) {
	var kid int64
	err := q.QueryRow(ctx, `
		INSERT INTO keywords (query_or_topic_id) VALUES ($1)
		ON CONFLICT (query_or_topic_id) DO UPDATE SET query_or_topic_id = EXCLUDED.query_or_topic_id
		RETURNING k_id
	`, queryOrTopicID).Scan(&kid)
	if err != nil {
		return 0, fmt.Errorf("intern query keyword %s: %w", queryOrTopicID, err)
	}
	return kid, nil
}

// InternTopicKeyword interns a topic-flavored keyword: a machine id
// (mid) paired with a display title and a lazily-created topic.
func InternTopicKeyword(ctx context.Context, q db, mid, title, topicName string) (int64, error) {
	tid, err := InternTopic(ctx, q, topicName)
	if err != nil {
		return 0, err
	}
	var kid int64
	err = q.QueryRow(ctx, `
		INSERT INTO keywords (query_or_topic_id, title, topic_id) VALUES ($1, $2, $3)
		ON CONFLICT (query_or_topic_id) DO UPDATE SET title = EXCLUDED.title, topic_id = EXCLUDED.topic_id
		RETURNING k_id
	`, mid, title, tid).Scan(&kid)
	if err != nil {
		return 0, fmt.Errorf("intern topic keyword %s: %w", mid, err)
	}
	return kid, nil
}
