// Package memorydriver is a tiny database/sql driver backed by a goroutine-owned
// store. It understands only the statements the cafestock repositories issue.
package memorydriver

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// materialRecord is the stored shape of one inventory row. Quantities stay as
// decimal strings so nothing is lost between the repository and the store.
type materialRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Current   string `json:"current_qty"`
	Threshold string `json:"threshold_qty"`
	Unit      string `json:"unit"`
	Supplier  string `json:"supplier"`
	DailyUse  string `json:"daily_use"`
	Ordered   bool   `json:"ordered"`
	Category  string `json:"category"`
	Note      string `json:"note"`
}

// orderRecord keeps a completed supplier order.
type orderRecord struct {
	ID        int64  `json:"id"`
	Supplier  string `json:"supplier"`
	Method    string `json:"method"`
	Contact   string `json:"contact"`
	LinesJSON string `json:"lines"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

// snapshot is written to disk after each mutation when a path is configured.
type snapshot struct {
	Materials       []materialRecord `json:"materials"`
	Orders          []orderRecord    `json:"orders"`
	MaterialCounter int64            `json:"material_counter"`
	OrderCounter    int64            `json:"order_counter"`

	seq int64
}

type storeCommand struct {
	action   string
	material materialRecord
	order    orderRecord
	reply    chan storeResult
}

type storeResult struct {
	id        int64
	affected  int64
	materials []materialRecord
	orders    []orderRecord
	err       error
}

// store serializes every read and write through one goroutine.
type store struct {
	commands        chan storeCommand
	closed          chan struct{}
	persistRequests chan snapshot
	materials       []materialRecord
	orders          []orderRecord
	materialCounter int64
	orderCounter    int64
	snapshotPath    string
	seq             int64

	writeMu sync.Mutex
	written int64
}

func newStore(path string) (*store, error) {
	loaded, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	s := &store{
		commands:        make(chan storeCommand, 32),
		closed:          make(chan struct{}),
		persistRequests: make(chan snapshot, 1),
		snapshotPath:    path,
	}
	if loaded != nil {
		s.materials = loaded.Materials
		s.orders = loaded.Orders
		s.materialCounter = loaded.MaterialCounter
		s.orderCounter = loaded.OrderCounter
	}
	go s.loop()
	go s.persistenceLoop()
	return s, nil
}

func (s *store) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.apply(cmd)
		case <-s.closed:
			return
		}
	}
}

// apply runs on the store goroutine only.
func (s *store) apply(cmd storeCommand) storeResult {
	switch cmd.action {
	case "insertMaterial":
		id := atomic.AddInt64(&s.materialCounter, 1)
		cmd.material.ID = id
		s.materials = append(s.materials, cmd.material)
		s.queuePersist()
		return storeResult{id: id, affected: 1}
	case "listMaterials":
		return storeResult{materials: cloneMaterials(s.materials)}
	case "updateMaterial":
		for i := range s.materials {
			if s.materials[i].ID != cmd.material.ID {
				continue
			}
			s.materials[i].Current = cmd.material.Current
			s.materials[i].Ordered = cmd.material.Ordered
			s.queuePersist()
			return storeResult{affected: 1}
		}
		return storeResult{}
	case "insertOrder":
		id := atomic.AddInt64(&s.orderCounter, 1)
		cmd.order.ID = id
		s.orders = append(s.orders, cmd.order)
		s.queuePersist()
		return storeResult{id: id, affected: 1}
	case "listOrders":
		orders := cloneOrders(s.orders)
		sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
		return storeResult{orders: orders}
	case "flush":
		return storeResult{err: s.write(s.snapshot())}
	case "noop":
		return storeResult{}
	default:
		return storeResult{err: fmt.Errorf("unsupported action %s", cmd.action)}
	}
}

func (s *store) persistenceLoop() {
	for {
		select {
		case snap := <-s.persistRequests:
			_ = s.write(snap)
		case <-s.closed:
			return
		}
	}
}

// queuePersist hands the latest state to the writer, dropping any older pending snapshot.
func (s *store) queuePersist() {
	if s.snapshotPath == "" {
		return
	}
	snap := s.snapshot()
	select {
	case s.persistRequests <- snap:
	default:
		select {
		case <-s.persistRequests:
		default:
		}
		s.persistRequests <- snap
	}
}

// snapshot copies the current state; only the store goroutine may call it.
func (s *store) snapshot() snapshot {
	s.seq++
	return snapshot{
		Materials:       cloneMaterials(s.materials),
		Orders:          cloneOrders(s.orders),
		MaterialCounter: atomic.LoadInt64(&s.materialCounter),
		OrderCounter:    atomic.LoadInt64(&s.orderCounter),
		seq:             s.seq,
	}
}

// write persists snap unless a newer snapshot already reached the disk.
func (s *store) write(snap snapshot) error {
	if s.snapshotPath == "" {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if snap.seq <= s.written {
		return nil
	}
	if err := writeSnapshot(s.snapshotPath, snap); err != nil {
		return err
	}
	s.written = snap.seq
	return nil
}

// flush writes the current state synchronously through the store goroutine.
func (s *store) flush() error {
	reply := make(chan storeResult, 1)
	select {
	case s.commands <- storeCommand{action: "flush", reply: reply}:
	case <-s.closed:
		return errors.New("memory store is closed")
	}
	return (<-reply).err
}

func (s *store) close() {
	close(s.closed)
}

// Driver wires the store into database/sql.
type Driver struct {
	store *store
}

// Open returns a connection onto the shared store; the DSN is ignored.
func (d *Driver) Open(name string) (driver.Conn, error) {
	if d.store == nil {
		return nil, errors.New("memory driver store is not initialized")
	}
	return &conn{store: d.store}, nil
}

type conn struct {
	store *store
}

// Prepare maps the SQL text onto a store action.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	trimmed := strings.TrimSpace(strings.ToLower(query))
	switch {
	case strings.HasPrefix(trimmed, "insert into materials"):
		return &stmt{store: c.store, query: "insertMaterial"}, nil
	case strings.HasPrefix(trimmed, "select") && strings.Contains(trimmed, "from materials"):
		return &stmt{store: c.store, query: "listMaterials"}, nil
	case strings.HasPrefix(trimmed, "update materials"):
		return &stmt{store: c.store, query: "updateMaterial"}, nil
	case strings.HasPrefix(trimmed, "insert into orders"):
		return &stmt{store: c.store, query: "insertOrder"}, nil
	case strings.HasPrefix(trimmed, "select") && strings.Contains(trimmed, "from orders"):
		return &stmt{store: c.store, query: "listOrders"}, nil
	case strings.HasPrefix(trimmed, "create table"), strings.HasPrefix(trimmed, "create index"), strings.HasPrefix(trimmed, "alter table"):
		return &stmt{store: c.store, query: "noop"}, nil
	default:
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
}

func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported by the memory driver")
}

type stmt struct {
	store *store
	query string
}

func (s *stmt) Close() error { return nil }

// NumInput returns -1 so database/sql skips argument counting.
func (s *stmt) NumInput() int { return -1 }

// Exec handles the mutation statements.
func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	if s.query == "noop" {
		return execResult{}, nil
	}
	reply := make(chan storeResult, 1)
	cmd := storeCommand{action: s.query, reply: reply}

	switch s.query {
	case "insertMaterial":
		if len(args) < 9 {
			return nil, fmt.Errorf("expected 9 arguments, got %d", len(args))
		}
		cmd.material = materialRecord{
			Name:      toString(args[0]),
			Current:   toString(args[1]),
			Threshold: toString(args[2]),
			Unit:      toString(args[3]),
			Supplier:  toString(args[4]),
			DailyUse:  toString(args[5]),
			Ordered:   toBool(args[6]),
			Category:  toString(args[7]),
			Note:      toString(args[8]),
		}
	case "updateMaterial":
		if len(args) < 3 {
			return nil, fmt.Errorf("expected 3 arguments, got %d", len(args))
		}
		cmd.material = materialRecord{
			Current: toString(args[0]),
			Ordered: toBool(args[1]),
			ID:      toInt64(args[2]),
		}
	case "insertOrder":
		if len(args) < 6 {
			return nil, fmt.Errorf("expected 6 arguments, got %d", len(args))
		}
		cmd.order = orderRecord{
			Supplier:  toString(args[0]),
			Method:    toString(args[1]),
			Contact:   toString(args[2]),
			LinesJSON: toString(args[3]),
			Message:   toString(args[4]),
			CreatedAt: toInt64(args[5]),
		}
	default:
		return nil, fmt.Errorf("unsupported exec action %s", s.query)
	}

	res, err := s.roundTrip(cmd, reply)
	if err != nil {
		return nil, err
	}
	return execResult{id: res.id, affected: res.affected}, nil
}

// Query handles the two listing statements.
func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	reply := make(chan storeResult, 1)
	res, err := s.roundTrip(storeCommand{action: s.query, reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	switch s.query {
	case "listMaterials":
		return &rows{kind: "materials", materials: res.materials}, nil
	case "listOrders":
		return &rows{kind: "orders", orders: res.orders}, nil
	default:
		return nil, errors.New("query only supports listing")
	}
}

// roundTrip enqueues the command with a timeout and waits for the store's answer.
func (s *stmt) roundTrip(cmd storeCommand, reply chan storeResult) (storeResult, error) {
	select {
	case s.store.commands <- cmd:
	case <-s.store.closed:
		return storeResult{}, errors.New("memory store is closed")
	case <-time.After(2 * time.Second):
		return storeResult{}, errors.New("timed out while enqueuing command")
	}
	select {
	case res := <-reply:
		return res, res.err
	case <-s.store.closed:
		return storeResult{}, errors.New("memory store is closed")
	}
}

type execResult struct {
	id       int64
	affected int64
}

func (r execResult) LastInsertId() (int64, error) { return r.id, nil }
func (r execResult) RowsAffected() (int64, error) { return r.affected, nil }

type rows struct {
	kind      string
	materials []materialRecord
	orders    []orderRecord
	index     int
}

// Columns mirrors the SELECT projections used by the repositories.
func (r *rows) Columns() []string {
	if r.kind == "materials" {
		return []string{"id", "name", "current_qty", "threshold_qty", "unit", "supplier", "daily_use", "ordered", "category", "note"}
	}
	return []string{"id", "supplier", "method", "contact", "lines", "message", "created_at"}
}

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.kind == "materials" {
		if r.index >= len(r.materials) {
			return io.EOF
		}
		rec := r.materials[r.index]
		r.index++
		dest[0] = rec.ID
		dest[1] = rec.Name
		dest[2] = rec.Current
		dest[3] = rec.Threshold
		dest[4] = rec.Unit
		dest[5] = rec.Supplier
		dest[6] = rec.DailyUse
		dest[7] = rec.Ordered
		dest[8] = rec.Category
		dest[9] = rec.Note
		return nil
	}
	if r.index >= len(r.orders) {
		return io.EOF
	}
	rec := r.orders[r.index]
	r.index++
	dest[0] = rec.ID
	dest[1] = rec.Supplier
	dest[2] = rec.Method
	dest[3] = rec.Contact
	dest[4] = rec.LinesJSON
	dest[5] = rec.Message
	dest[6] = rec.CreatedAt
	return nil
}

func toString(value driver.Value) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt64(value driver.Value) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		parsed, _ := strconv.ParseInt(v, 10, 64)
		return parsed
	default:
		return 0
	}
}

func toBool(value driver.Value) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	default:
		return false
	}
}

var registered int64

// Register installs a fresh store under a unique driver name. A non-empty
// snapshotPath makes the store reload from and write to that JSON file.
func Register(snapshotPath string) (string, func(), error) {
	st, err := newStore(snapshotPath)
	if err != nil {
		return "", func() {}, err
	}
	name := fmt.Sprintf("cafestock-memory-%d", atomic.AddInt64(&registered, 1))
	sql.Register(name, &Driver{store: st})
	cleanup := func() {
		_ = st.flush()
		st.close()
	}
	return name, cleanup, nil
}

func readSnapshot(path string) (*snapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func writeSnapshot(path string, snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func cloneMaterials(src []materialRecord) []materialRecord {
	out := make([]materialRecord, len(src))
	copy(out, src)
	return out
}

func cloneOrders(src []orderRecord) []orderRecord {
	out := make([]orderRecord, len(src))
	copy(out, src)
	return out
}
