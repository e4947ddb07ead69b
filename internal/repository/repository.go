// Package repository implements the module serializer/loader of spec
// §4.8/§4.11: a descriptor.Value serializer (an operation-code stream
// with a shared-reference registry so cycles and repeated substructure
// round-trip without copying, see serializer.go) over canonical,
// content-fingerprinted storage for compiled methods, macros, prefix
// functions, restrictions, and the arbitrary values those may embed —
// safepoint-gated so a mutation never observes a fiber mid-instruction.
// Grounded on the teacher's module loader/cache (sentra
// internal/module/module.go's ModuleLoader) and its database module's
// connection-pool-per-backend shape (internal/database/database.go),
// but backed by a single embedded modernc.org/sqlite store rather than a
// zoo of sql/driver backends — repositories here are a local
// content-addressed cache, not a multi-backend connection pool, so one
// pure-Go embedded engine covers it; content fingerprints use
// golang.org/x/crypto/blake2b and repository/session identities use
// github.com/google/uuid, both real dependencies of the teacher's
// broader stack repurposed for this narrower, in-scope role.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/fiber"
)

// Fingerprint is the canonical content hash of a serialized entity.
type Fingerprint [blake2b.Size256]byte

func FingerprintOf(data []byte) Fingerprint {
	return blake2b.Sum256(data)
}

func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:8]) }

// Kind distinguishes the entity families a repository stores, per
// spec §4.8.
type Kind int

const (
	KindMethodBody Kind = iota
	KindMacroBody
	KindPrefixFunction
	KindSemanticRestriction
	KindGrammaticalRestriction
)

// Entity is one stored record: its kind, owning atom name, serialized
// bytes, and the fingerprint those bytes hash to.
type Entity struct {
	ID          string
	Kind        Kind
	AtomName    string
	Data        []byte
	Fingerprint Fingerprint
}

// Repository is a reopenable handle onto a single sqlite-backed content
// store.
type Repository struct {
	path string
	mu   sync.Mutex
	db   *sql.DB
}

// Open opens (creating if absent) the repository at path.
func Open(path string) (*Repository, error) {
	r := &Repository{path: path}
	if err := r.reopenIfNecessary(); err != nil {
		return nil, err
	}
	return r, nil
}

// reopenIfNecessary lazily (re)establishes the sqlite connection, mirroring
// the teacher's lazy-connect-on-first-use pattern in DBConnection.
func (r *Repository) reopenIfNecessary() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		if err := r.db.Ping(); err == nil {
			return nil
		}
		r.db.Close()
		r.db = nil
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return diagnostic.Internal("opening repository %s: %v", r.path, err)
	}
	// A single connection: an in-memory database is per-connection state,
	// and the content-addressed writes here are infrequent enough that
	// serializing on one connection costs nothing observable.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return diagnostic.Internal("initializing repository schema: %v", err)
	}
	r.db = db
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entities (
	id          TEXT PRIMARY KEY,
	kind        INTEGER NOT NULL,
	atom_name   TEXT NOT NULL,
	fingerprint BLOB NOT NULL,
	data        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entities_fingerprint ON entities(fingerprint);
CREATE INDEX IF NOT EXISTS idx_entities_atom ON entities(atom_name, kind);
`

// clearRepository truncates every stored entity, used by the CLI's
// --clearRepositories flag.
func (r *Repository) clearRepository() error {
	if err := r.reopenIfNecessary(); err != nil {
		return err
	}
	_, err := r.db.Exec("DELETE FROM entities")
	return err
}

// ClearRepository is the exported form of clearRepository.
func (r *Repository) ClearRepository() error { return r.clearRepository() }

// describe summarizes the repository's contents (entity counts by kind)
// for -g/--generateDocumentation.
func (r *Repository) describe() (counts map[Kind]int, err error) {
	if err := r.reopenIfNecessary(); err != nil {
		return nil, err
	}
	rows, err := r.db.Query("SELECT kind, COUNT(*) FROM entities GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts = map[Kind]int{}
	for rows.Next() {
		var k, n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[Kind(k)] = n
	}
	return counts, rows.Err()
}

// Describe is the exported form of describe.
func (r *Repository) Describe() (map[Kind]int, error) { return r.describe() }

func (r *Repository) store(kind Kind, atomName string, data []byte) (Entity, error) {
	if err := r.reopenIfNecessary(); err != nil {
		return Entity{}, err
	}
	fp := FingerprintOf(data)
	id := uuid.New().String()
	_, err := r.db.Exec(
		"INSERT INTO entities (id, kind, atom_name, fingerprint, data) VALUES (?, ?, ?, ?, ?)",
		id, int(kind), atomName, fp[:], data,
	)
	if err != nil {
		return Entity{}, diagnostic.Internal("storing entity: %v", err)
	}
	return Entity{ID: id, Kind: kind, AtomName: atomName, Data: data, Fingerprint: fp}, nil
}

// StoreValue serializes v (via Serializer) and stores the resulting
// bytes as a new entity, fingerprinted on its serialized form the same
// way a raw compiled-body blob is — structurally-equal values get the
// same fingerprint, but every call inserts its own row; StoreValue does
// not look for an existing row first.
func (r *Repository) StoreValue(kind Kind, atomName string, v *descriptor.Value) (Entity, error) {
	data := NewSerializer().Serialize(v)
	return r.store(kind, atomName, data)
}

// LoadValue fetches the entity stored under id and deserializes its data
// back into a descriptor.Value, interning any atom names it decodes
// through atoms so they resolve to the same process-wide identity a
// caller's own atom table already knows about (spec §8 property 6).
func (r *Repository) LoadValue(ctx context.Context, id string, atoms *dispatch.AtomTable) (*descriptor.Value, error) {
	if err := r.reopenIfNecessary(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, "SELECT data FROM entities WHERE id = ?", id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, diagnostic.Runtime(diagnostic.CodeSerializationFailed, "no entity stored under id %q", id)
		}
		return nil, err
	}
	return NewDeserializer(atoms).Deserialize(data)
}

// Loader mutates a Repository's contents; every mutation requires a
// scheduler safepoint (spec §4.8) so no fiber observes a half-written
// method table.
type Loader struct {
	repo *Repository
	sched *fiber.Scheduler
}

func NewLoader(repo *Repository, sched *fiber.Scheduler) *Loader {
	return &Loader{repo: repo, sched: sched}
}

func (l *Loader) atSafepoint(fn func() (Entity, error)) (Entity, error) {
	if l.sched != nil {
		l.sched.AwaitSafepoint()
	}
	return fn()
}

func (l *Loader) addMethodBody(atomName string, body []byte) (Entity, error) {
	return l.atSafepoint(func() (Entity, error) { return l.repo.store(KindMethodBody, atomName, body) })
}

func (l *Loader) addMacroBody(atomName string, body []byte) (Entity, error) {
	return l.atSafepoint(func() (Entity, error) { return l.repo.store(KindMacroBody, atomName, body) })
}

func (l *Loader) addPrefixFunction(atomName string, body []byte) (Entity, error) {
	return l.atSafepoint(func() (Entity, error) { return l.repo.store(KindPrefixFunction, atomName, body) })
}

func (l *Loader) addSemanticRestriction(atomName string, body []byte) (Entity, error) {
	return l.atSafepoint(func() (Entity, error) { return l.repo.store(KindSemanticRestriction, atomName, body) })
}

func (l *Loader) addGrammaticalRestriction(atomName string, body []byte) (Entity, error) {
	return l.atSafepoint(func() (Entity, error) { return l.repo.store(KindGrammaticalRestriction, atomName, body) })
}

// AddMethodBody, AddMacroBody, AddPrefixFunction, AddSemanticRestriction,
// and AddGrammaticalRestriction are the exported entry points the module
// compiler calls; each blocks until every running fiber is at a
// safepoint before mutating the backing store.
func (l *Loader) AddMethodBody(atomName string, body []byte) (Entity, error) {
	return l.addMethodBody(atomName, body)
}
func (l *Loader) AddMacroBody(atomName string, body []byte) (Entity, error) {
	return l.addMacroBody(atomName, body)
}
func (l *Loader) AddPrefixFunction(atomName string, body []byte) (Entity, error) {
	return l.addPrefixFunction(atomName, body)
}
func (l *Loader) AddSemanticRestriction(atomName string, body []byte) (Entity, error) {
	return l.addSemanticRestriction(atomName, body)
}
func (l *Loader) AddGrammaticalRestriction(atomName string, body []byte) (Entity, error) {
	return l.addGrammaticalRestriction(atomName, body)
}

// ByFingerprint fetches a previously stored entity by its content hash,
// used to deduplicate identical method bodies across separately compiled
// modules.
func (r *Repository) ByFingerprint(ctx context.Context, fp Fingerprint) (Entity, bool, error) {
	if err := r.reopenIfNecessary(); err != nil {
		return Entity{}, false, err
	}
	row := r.db.QueryRowContext(ctx, "SELECT id, kind, atom_name, data FROM entities WHERE fingerprint = ?", fp[:])
	var e Entity
	var kind int
	if err := row.Scan(&e.ID, &kind, &e.AtomName, &e.Data); err != nil {
		if err == sql.ErrNoRows {
			return Entity{}, false, nil
		}
		return Entity{}, false, err
	}
	e.Kind = Kind(kind)
	e.Fingerprint = fp
	return e, true, nil
}

func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
