// Package storage is a registry of recognized objects persisted in SQLite
package storage

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/LdDl/skeleton-retriever/retriever"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ retriever.Registry = (*Store)(nil)

// Object is a stored registry entry
type Object struct {
	ID         int64
	Properties retriever.Properties
	UpdatedAt  time.Time
}

// Store implements retriever.Registry on top of SQLite database
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open opens (creating if needed) database at path and migrates it to the latest schema
func Open(path string, logger logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	store := &Store{
		db:  db,
		log: logger,
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (store *Store) migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "migrations source")
	}
	driver, err := sqlite.WithInstance(store.db, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "migrations driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	// m.Close() would close the database as well
	m.Log = &migrateLogger{log: store.log}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "schema version")
	}
	store.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Registry schema is up to date")
	return nil
}

// Close closes database
func (store *Store) Close() error {
	if err := store.db.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	store.log.Debug("Registry database closed")
	return nil
}

// Add stores new object and returns its identifier
func (store *Store) Add(ctx context.Context, props retriever.Properties) (int64, error) {
	doc, err := marshalProperties(props)
	if err != nil {
		return retriever.NoRegistryID, err
	}
	res, err := store.db.ExecContext(ctx, `INSERT INTO objects (properties) VALUES (?)`, doc)
	if err != nil {
		return retriever.NoRegistryID, errors.Wrap(err, "insert object")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return retriever.NoRegistryID, errors.Wrap(err, "insert object")
	}
	return id, nil
}

// Set replaces properties of the object
func (store *Store) Set(ctx context.Context, id int64, props retriever.Properties) error {
	doc, err := marshalProperties(props)
	if err != nil {
		return err
	}
	res, err := store.db.ExecContext(ctx, `UPDATE objects SET properties = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, doc, id)
	if err != nil {
		return errors.Wrapf(err, "update object %d", id)
	}
	return expectAffected(res, id)
}

// Delete removes the object
func (store *Store) Delete(ctx context.Context, id int64) error {
	res, err := store.db.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete object %d", id)
	}
	return expectAffected(res, id)
}

// Get returns properties of the object
func (store *Store) Get(ctx context.Context, id int64) (retriever.Properties, error) {
	var doc string
	err := store.db.QueryRowContext(ctx, `SELECT properties FROM objects WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(retriever.ErrUnknownObject, "object %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select object %d", id)
	}
	return unmarshalProperties(doc)
}

// List returns every stored object ordered by identifier
func (store *Store) List(ctx context.Context) ([]Object, error) {
	rows, err := store.db.QueryContext(ctx, `SELECT id, properties, updated_at FROM objects ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select objects")
	}
	defer rows.Close()

	objects := make([]Object, 0)
	for rows.Next() {
		var obj Object
		var doc string
		if err := rows.Scan(&obj.ID, &doc, &obj.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan object")
		}
		if obj.Properties, err = unmarshalProperties(doc); err != nil {
			return nil, errors.Wrapf(err, "object %d", obj.ID)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "select objects")
	}
	return objects, nil
}

func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "object %d", id)
	}
	if n == 0 {
		return errors.Wrapf(retriever.ErrUnknownObject, "object %d", id)
	}
	return nil
}

func marshalProperties(props retriever.Properties) (string, error) {
	msg, err := structpb.NewStruct(props)
	if err != nil {
		return "", errors.Wrap(err, "properties")
	}
	doc, err := protojson.Marshal(msg)
	if err != nil {
		return "", errors.Wrap(err, "properties")
	}
	return string(doc), nil
}

func unmarshalProperties(doc string) (retriever.Properties, error) {
	msg := new(structpb.Struct)
	if err := protojson.Unmarshal([]byte(doc), msg); err != nil {
		return nil, errors.Wrap(err, "properties")
	}
	return msg.AsMap(), nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct {
	log logrus.FieldLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.WithField("component", "migrate").Debugf(format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
