// Package inmem keeps every table in memory. It backs the tests and local runs without Postgres.
package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
)

type tables struct {
	polos         map[string]school.Polo
	turmas        map[string]school.Turma
	alunos        map[string]student.Aluno
	preMatriculas map[string]enrollment.PreMatricula
	matriculas    map[string]enrollment.Matricula
	charges       map[string]billing.Charge
	finConfig     *billing.FinancialConfig
	modulos       map[string]curriculum.Modulo
	licoes        map[string]curriculum.Licao
	waitlist      map[string]waitlist.Entry
	users         map[string]user.User
	audit         []audit.Entry
}

func newTables() tables {
	return tables{
		polos:         make(map[string]school.Polo),
		turmas:        make(map[string]school.Turma),
		alunos:        make(map[string]student.Aluno),
		preMatriculas: make(map[string]enrollment.PreMatricula),
		matriculas:    make(map[string]enrollment.Matricula),
		charges:       make(map[string]billing.Charge),
		modulos:       make(map[string]curriculum.Modulo),
		licoes:        make(map[string]curriculum.Licao),
		waitlist:      make(map[string]waitlist.Entry),
		users:         make(map[string]user.User),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// clone copies the table maps; rows are values so the copy is independent of the original.
func (t tables) clone() tables {
	c := tables{
		polos:         cloneMap(t.polos),
		turmas:        cloneMap(t.turmas),
		alunos:        cloneMap(t.alunos),
		preMatriculas: cloneMap(t.preMatriculas),
		matriculas:    cloneMap(t.matriculas),
		charges:       cloneMap(t.charges),
		modulos:       cloneMap(t.modulos),
		licoes:        cloneMap(t.licoes),
		waitlist:      cloneMap(t.waitlist),
		users:         cloneMap(t.users),
		audit:         append([]audit.Entry(nil), t.audit...),
	}
	if t.finConfig != nil {
		fc := *t.finConfig
		c.finConfig = &fc
	}
	return c
}

// Store holds the tables shared by the in-memory repositories.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex // held by a transaction and by every write made outside one
	t    tables
}

// txExec is handed to the function run by InTx so repositories can tell their writes belong to it.
type txExec struct{ core.DBExecutor }

func inTx(exec []core.DBExecutor) bool {
	if len(exec) == 0 {
		return false
	}
	_, ok := exec[0].(txExec)
	return ok
}

var _ core.Transactor = (*Store)(nil)

func NewStore() *Store {
	return &Store{t: newTables()}
}

// Reset drops every row.
func (s *Store) Reset() {
	s.mu.Lock()
	s.t = newTables()
	s.mu.Unlock()
}

// InTx runs fn and restores the tables to their previous state if it fails.
// Writes made outside the transaction wait for it to finish, so a rollback never discards them.
func (s *Store) InTx(_ context.Context, fn func(exec core.DBExecutor) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.t.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(txExec{}); err != nil {
		rollback()
	}
	return err
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.t)
}

func (s *Store) write(exec []core.DBExecutor, fn func(t *tables) error) error {
	if !inTx(exec) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.t)
}

func newID() string {
	return uuid.New().String()
}
