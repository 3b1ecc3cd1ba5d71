package mcp

import (
	"context"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// mockSession is a mock implementation of driving.ContractSession.
type mockSession struct {
	doc       *domain.Document
	answer    *domain.Answer
	fields    *domain.FieldSet
	history   []domain.ConversationTurn
	err       error
	loadCalls []string
	questions []string
	kinds     []domain.SummaryKind
}

func (m *mockSession) Load(_ context.Context, doc *domain.Document) error {
	if m.err != nil {
		return m.err
	}
	m.doc = doc
	m.loadCalls = append(m.loadCalls, doc.ID)
	return nil
}

func (m *mockSession) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	return m.answer, m.err
}

func (m *mockSession) Summarize(_ context.Context, kind domain.SummaryKind) (*domain.Answer, error) {
	m.kinds = append(m.kinds, kind)
	return m.answer, m.err
}

func (m *mockSession) Extract(_ context.Context) (*domain.FieldSet, error) {
	return m.fields, m.err
}

func (m *mockSession) History() []domain.ConversationTurn {
	return m.history
}

func (m *mockSession) ClearMemory() {
	m.history = nil
}

func (m *mockSession) Unload() {
	m.doc = nil
}

func (m *mockSession) State() domain.SessionState {
	if m.doc != nil {
		return domain.StateReady
	}
	return domain.StateUnloaded
}

func (m *mockSession) Document() *domain.Document {
	return m.doc
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Ingest(_ context.Context, _, _ string, _ []domain.Page) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Latest(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
