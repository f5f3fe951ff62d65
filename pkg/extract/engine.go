package extract

import (
	"context"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/date"
	"github.com/bruin-data/tap-redshift/pkg/logger"
	"github.com/bruin-data/tap-redshift/pkg/message"
	"github.com/bruin-data/tap-redshift/pkg/query"
	"github.com/bruin-data/tap-redshift/pkg/state"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const checkpointInterval = 1000

type source interface {
	Query(ctx context.Context, q *query.Query) (pgx.Rows, error)
}

type Engine struct {
	source    source
	sink      message.Sink
	logger    logger.Logger
	startDate *time.Time
	clock     func() time.Time
}

type Option func(e *Engine)

// WithStartDate sets the lower bound used by incremental streams that have no bookmark yet.
func WithStartDate(t time.Time) Option {
	return func(e *Engine) {
		e.startDate = &t
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func NewEngine(src source, sink message.Sink, logger logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		source: src,
		sink:   sink,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run syncs every selected stream of the catalog in order. The state is updated in place and a
// snapshot of it is emitted at every stream boundary.
func (e *Engine) Run(ctx context.Context, c *catalog.Catalog, st *state.ReplicationState) error {
	for _, stream := range c.Streams {
		if !stream.IsSelected() {
			e.logger.Debugf("Skipping stream '%s', it is not selected", stream.TapStreamID)
			continue
		}
		if len(stream.SelectedColumns()) == 0 {
			e.logger.Warnf("There are no columns selected for stream '%s', skipping it", stream.TapStreamID)
			continue
		}

		st.SetCurrentlySyncing(lo.ToPtr(stream.TapStreamID))
		if err := e.emit(message.State{Value: st.Clone()}); err != nil {
			return err
		}

		err := e.emit(message.Schema{
			Stream:             stream.TapStreamID,
			Schema:             stream.SelectedSchema(),
			KeyProperties:      stream.KeyProperties(),
			BookmarkProperties: lo.Compact([]string{stream.ReplicationKey()}),
		})
		if err != nil {
			return err
		}

		if err := e.SyncStream(ctx, stream, st); err != nil {
			return err
		}
	}

	st.SetCurrentlySyncing(nil)
	return e.emit(message.State{Value: st.Clone()})
}

// SyncStream extracts a single stream and emits its records, version activations and checkpoints.
func (e *Engine) SyncStream(ctx context.Context, stream *catalog.Stream, st *state.ReplicationState) error {
	id := stream.TapStreamID
	columns := stream.SelectedColumns()
	if len(columns) == 0 {
		e.logger.Warnf("There are no columns selected for stream '%s', skipping it", id)
		return nil
	}

	started := time.Now()
	e.logger.Infof("Beginning sync of stream '%s'", id)

	firstRun := !st.HasBookmark(id)
	version := st.Version(id)
	if version == nil {
		version = lo.ToPtr(e.clock().UnixMilli())
	}
	st.SetVersion(id, version)

	replicationKey := stream.ReplicationKey()
	if replicationKey != "" || firstRun {
		if err := e.emit(message.ActivateVersion{Stream: id, Version: *version}); err != nil {
			return err
		}
	}

	q, formats, err := e.buildQuery(stream, columns, st)
	if err != nil {
		return err
	}

	e.logger.Debugf("Running query for stream '%s': %s", id, q.ToLogQuery())
	timeExtracted := e.clock()
	rows, err := e.source.Query(ctx, q)
	if err != nil {
		return &QueryError{Stream: id, Query: q.String(), Err: err}
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return &QueryError{Stream: id, Query: q.String(), Err: errors.Wrap(err, "failed to read row values")}
		}
		if len(values) != len(columns) {
			return &QueryError{Stream: id, Query: q.String(), Err: errors.Errorf("expected %d values per row, got %d", len(columns), len(values))}
		}

		record := make(map[string]any, len(columns))
		for i, name := range columns {
			record[name] = normalizeValue(values[i], formats[i])
		}

		err = e.emit(message.Record{
			Stream:        id,
			Record:        record,
			Version:       version,
			TimeExtracted: timeExtracted,
		})
		if err != nil {
			return err
		}
		count++

		if replicationKey != "" && record[replicationKey] != nil {
			st.SetReplicationKeyValue(id, bookmarkValue(record[replicationKey]))
		}
		if count%checkpointInterval == 0 {
			if err := e.emit(message.State{Value: st.Clone()}); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Stream: id, Query: q.String(), Err: err}
	}

	if replicationKey == "" {
		if err := e.emit(message.ActivateVersion{Stream: id, Version: *version}); err != nil {
			return err
		}
		st.SetVersion(id, nil)
	}

	if err := e.emit(message.State{Value: st.Clone()}); err != nil {
		return err
	}

	e.logger.Infow("Finished syncing stream", "stream", id, "rows", count, "duration", time.Since(started).String())
	return nil
}

func (e *Engine) buildQuery(stream *catalog.Stream, columns []string, st *state.ReplicationState) (*query.Query, []string, error) {
	formats := make([]string, len(columns))
	sel := query.Select{
		Schema:         stream.SchemaName(),
		Table:          stream.Table(),
		Columns:        make([]query.Column, len(columns)),
		ReplicationKey: stream.ReplicationKey(),
	}
	for i, name := range columns {
		if schema, ok := stream.ColumnSchema(name); ok {
			formats[i] = schema.Format
		}
		sel.Columns[i] = query.Column{Name: name, Format: formats[i]}
	}

	if sel.ReplicationKey != "" {
		value, err := e.replicationKeyValue(stream, st)
		if err != nil {
			return nil, nil, err
		}
		sel.ReplicationKeyValue = value
	}

	q, err := sel.Build()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to build the query for stream '%s'", stream.TapStreamID)
	}

	return q, formats, nil
}

// replicationKeyValue returns the lower bound of an incremental stream: the bookmark when there is
// one, the configured start date otherwise. Date-time keys are bound as timestamps.
func (e *Engine) replicationKeyValue(stream *catalog.Stream, st *state.ReplicationState) (any, error) {
	bookmark := st.ReplicationKeyValue(stream.TapStreamID)
	if bookmark == nil {
		if e.startDate != nil {
			return *e.startDate, nil
		}
		return nil, nil
	}

	schema, ok := stream.ColumnSchema(stream.ReplicationKey())
	if !ok || !schema.IsDateTime() {
		return *bookmark, nil
	}

	t, err := date.ParseTime(*bookmark)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid bookmark '%s' for stream '%s'", *bookmark, stream.TapStreamID)
	}
	return t, nil
}

func (e *Engine) emit(m message.Message) error {
	return errors.Wrap(e.sink.Write(m), "failed to emit message")
}
