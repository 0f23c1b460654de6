package registry

// etcd is used as a shared catalogue of definitions, so that processes
// which never compiled a type can still resolve it by name:
//
//	Key:   {prefix}/msg/{package}/{Name}   or   {prefix}/srv/{package}/{Name}
//	Value: JSON record {type, kind, md5, cid, definition}
//
// Readers never trust the stored md5. They re-parse the definition,
// recompute the token and reject the record if the two disagree.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"rosrpc/config"
	"rosrpc/logging"
	"rosrpc/schema"
	"rosrpc/service"
)

// record is the stored form of one definition.
type record struct {
	Type       string `json:"type"`
	Kind       Kind   `json:"kind"`
	MD5        string `json:"md5"`
	CID        string `json:"cid"`
	Definition string `json:"definition"`
}

// CorruptRecordError reports a stored record that does not describe the
// layout it claims to.
type CorruptRecordError struct {
	Key    string
	Reason string
	Cause  error
}

func (e *CorruptRecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registry: corrupt record %s: %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("registry: corrupt record %s: %s", e.Key, e.Reason)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Cause
}

// Change is delivered by Watch for every remote write or delete.
type Change struct {
	Kind    Kind
	Type    string
	Deleted bool
}

// EtcdRegistry implements Registry on top of etcd v3, caching resolved
// definitions in memory.
type EtcdRegistry struct {
	client  *clientv3.Client // thread-safe, shared across goroutines
	prefix  string
	timeout time.Duration
	cache   *MemoryRegistry
	logger  *zap.Logger
}

// NewEtcdRegistry connects to the endpoints in cfg.
func NewEtcdRegistry(cfg config.Registry) (*EtcdRegistry, error) {
	logger := logging.Logger().Named("registry")
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connect %v: %w", cfg.Endpoints, err)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.Default().Registry.RequestTimeout
	}
	return &EtcdRegistry{
		client:  c,
		prefix:  strings.TrimRight(cfg.Prefix, "/"),
		timeout: timeout,
		cache:   NewMemoryRegistry(),
		logger:  logger,
	}, nil
}

// Close releases the etcd connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}

func (r *EtcdRegistry) key(kind Kind, typeName string) string {
	return r.prefix + "/" + string(kind) + "/" + typeName
}

func (r *EtcdRegistry) parseKey(key string) (Kind, string, bool) {
	rest, ok := strings.CutPrefix(key, r.prefix+"/")
	if !ok {
		return "", "", false
	}
	kind, typeName, ok := strings.Cut(rest, "/")
	if !ok || (Kind(kind) != KindMessage && Kind(kind) != KindService) {
		return "", "", false
	}
	return Kind(kind), typeName, true
}

func (r *EtcdRegistry) RegisterMessage(ctx context.Context, s *schema.Schema) error {
	if err := r.put(ctx, KindMessage, s.Name(), s.Token(), s.Definition()); err != nil {
		return err
	}
	r.cache.forget(KindMessage, s.Name())
	return r.cache.RegisterMessage(ctx, s)
}

func (r *EtcdRegistry) RegisterService(ctx context.Context, d *service.Descriptor) error {
	if err := r.put(ctx, KindService, d.Name(), d.Token(), d.Definition()); err != nil {
		return err
	}
	r.cache.forget(KindService, d.Name())
	return r.cache.RegisterService(ctx, d)
}

// put stores a record unless the key already holds one; an existing record
// must carry the same token.
func (r *EtcdRegistry) put(ctx context.Context, kind Kind, typeName string, tok schema.Token, definition string) error {
	key := r.key(kind, typeName)
	val, err := json.Marshal(newRecord(kind, typeName, tok, definition))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resp, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(val))).
		Else(clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return fmt.Errorf("registry: put %s: %w", key, err)
	}
	if resp.Succeeded {
		r.logger.Debug("registered", zap.String("key", key), zap.Stringer("md5", tok))
		return nil
	}

	kvs := resp.Responses[0].GetResponseRange().Kvs
	if len(kvs) == 0 {
		return fmt.Errorf("registry: put %s: key deleted concurrently", key)
	}
	existing, err := decodeRecord(key, kvs[0].Value)
	if err != nil {
		return err
	}
	existingTok, err := schema.ParseToken(existing.MD5)
	if err != nil {
		return &CorruptRecordError{Key: key, Reason: "bad md5", Cause: err}
	}
	if existingTok != tok {
		return &ConflictError{Kind: kind, Type: typeName, Existing: existingTok, Incoming: tok}
	}
	return nil
}

// Deregister removes a definition from etcd and from the local cache.
func (r *EtcdRegistry) Deregister(ctx context.Context, kind Kind, typeName string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.client.Delete(ctx, r.key(kind, typeName)); err != nil {
		return fmt.Errorf("registry: delete %s: %w", r.key(kind, typeName), err)
	}
	r.cache.forget(kind, typeName)
	return nil
}

func (r *EtcdRegistry) Message(ctx context.Context, typeName string) (*schema.Schema, error) {
	if s, err := r.cache.Message(ctx, typeName); err == nil {
		return s, nil
	}
	key, rec, err := r.get(ctx, KindMessage, typeName)
	if err != nil {
		return nil, err
	}
	s, err := messageFromRecord(key, typeName, rec)
	if err != nil {
		return nil, err
	}
	if err := r.cache.RegisterMessage(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *EtcdRegistry) Service(ctx context.Context, typeName string) (*service.Descriptor, error) {
	if d, err := r.cache.Service(ctx, typeName); err == nil {
		return d, nil
	}
	key, rec, err := r.get(ctx, KindService, typeName)
	if err != nil {
		return nil, err
	}
	d, err := serviceFromRecord(key, typeName, rec)
	if err != nil {
		return nil, err
	}
	if err := r.cache.RegisterService(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *EtcdRegistry) get(ctx context.Context, kind Kind, typeName string) (string, record, error) {
	key := r.key(kind, typeName)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resp, err := r.client.Get(ctx, key)
	if err != nil {
		return key, record{}, fmt.Errorf("registry: get %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return key, record{}, notFound(kind, typeName)
	}
	rec, err := decodeRecord(key, resp.Kvs[0].Value)
	return key, rec, err
}

func newRecord(kind Kind, typeName string, tok schema.Token, definition string) record {
	return record{
		Type:       typeName,
		Kind:       kind,
		MD5:        tok.String(),
		CID:        tok.CID().String(),
		Definition: definition,
	}
}

func messageFromRecord(key, typeName string, rec record) (*schema.Schema, error) {
	s, err := schema.Parse(typeName, rec.Definition)
	if err != nil {
		return nil, &CorruptRecordError{Key: key, Reason: "definition does not parse", Cause: err}
	}
	if err := verify(key, rec, s.Token()); err != nil {
		return nil, err
	}
	return s, nil
}

func serviceFromRecord(key, typeName string, rec record) (*service.Descriptor, error) {
	d, err := service.Parse(typeName, rec.Definition)
	if err != nil {
		return nil, &CorruptRecordError{Key: key, Reason: "definition does not parse", Cause: err}
	}
	if err := verify(key, rec, d.Token()); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeRecord(key string, data []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, &CorruptRecordError{Key: key, Reason: "not a JSON record", Cause: err}
	}
	return rec, nil
}

// verify checks the stored md5 and cid against the token recomputed from
// the stored definition.
func verify(key string, rec record, tok schema.Token) error {
	if rec.MD5 != tok.String() {
		return &CorruptRecordError{Key: key, Reason: fmt.Sprintf("stored md5 %s, definition hashes to %s", rec.MD5, tok)}
	}
	if rec.CID == "" {
		return nil
	}
	c, err := cid.Decode(rec.CID)
	if err != nil {
		return &CorruptRecordError{Key: key, Reason: "bad cid", Cause: err}
	}
	fromCID, err := schema.TokenFromCID(c)
	if err != nil {
		return &CorruptRecordError{Key: key, Reason: "bad cid", Cause: err}
	}
	if fromCID != tok {
		return &CorruptRecordError{Key: key, Reason: "cid does not match md5"}
	}
	return nil
}

// Messages returns the message type names stored in etcd, sorted.
func (r *EtcdRegistry) Messages(ctx context.Context) ([]string, error) {
	return r.list(ctx, KindMessage)
}

// Services returns the service type names stored in etcd, sorted.
func (r *EtcdRegistry) Services(ctx context.Context) ([]string, error) {
	return r.list(ctx, KindService)
}

func (r *EtcdRegistry) list(ctx context.Context, kind Kind) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	prefix := r.prefix + "/" + string(kind) + "/"
	resp, err := r.client.Get(ctx, prefix,
		clientv3.WithPrefix(),
		clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, fmt.Errorf("registry: list %s: %w", prefix, err)
	}
	names := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		if _, name, ok := r.parseKey(string(kv.Key)); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Watch follows remote changes under the registry prefix. Every change
// evicts the affected entry from the local cache before it is delivered.
// The channel is closed when ctx is done.
func (r *EtcdRegistry) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)
	go func() {
		defer close(ch)
		for resp := range r.client.Watch(ctx, r.prefix+"/", clientv3.WithPrefix()) {
			if err := resp.Err(); err != nil {
				r.logger.Warn("watch", zap.Error(err))
				continue
			}
			for _, ev := range resp.Events {
				kind, name, ok := r.parseKey(string(ev.Kv.Key))
				if !ok {
					continue
				}
				r.cache.forget(kind, name)
				select {
				case ch <- Change{Kind: kind, Type: name, Deleted: ev.Type == clientv3.EventTypeDelete}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
