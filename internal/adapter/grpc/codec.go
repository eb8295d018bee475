package grpc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// Request fields arrive as a google.protobuf.Struct. Amounts may be sent as
// strings or numbers; strings are preferred to avoid float rounding.

func field(req *structpb.Struct, key string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, false
	}
	return v, true
}

func optString(req *structpb.Struct, key string) string {
	v, ok := field(req, key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func reqString(req *structpb.Struct, key string) (string, error) {
	s := optString(req, key)
	if s == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return s, nil
}

func optDecimal(req *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := field(req, key)
	if !ok {
		return decimal.Zero, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(k.NumberValue), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(k.StringValue))
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format", key)
	}
}

func reqDecimal(req *structpb.Struct, key string) (decimal.Decimal, error) {
	if _, ok := field(req, key); !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return optDecimal(req, key)
}

func reqUUID(req *structpb.Struct, key string) (uuid.UUID, error) {
	s, err := reqString(req, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return id, nil
}

func optUUID(req *structpb.Struct, key string) (*uuid.UUID, error) {
	if optString(req, key) == "" {
		return nil, nil
	}
	id, err := reqUUID(req, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optInt(req *structpb.Struct, key string, def int) int {
	v, ok := field(req, key)
	if !ok {
		return def
	}
	n := v.GetNumberValue()
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int(n)
}

func optBool(req *structpb.Struct, key string) bool {
	v, ok := field(req, key)
	return ok && v.GetBoolValue()
}

func respond(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func accountMap(a domain.Account) map[string]any {
	return map[string]any{
		"id":               a.ID.String(),
		"bank":             a.Bank,
		"account_type":     string(a.AccountType),
		"balance":          a.Balance.String(),
		"account_number":   a.AccountNumber,
		"formatted_number": a.FormattedNumber(),
		"currency":         a.Currency,
		"product_id":       optID(a.ProductID),
	}
}

func accountList(accounts []domain.Account) []any {
	out := make([]any, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountMap(a))
	}
	return out
}

func productMap(p domain.Product) map[string]any {
	return map[string]any{
		"id":                p.ID.String(),
		"catalog_id":        p.CatalogID,
		"type":              string(p.Type),
		"type_display":      p.Type.DisplayName(),
		"name":              p.Name,
		"amount":            p.Amount.String(),
		"rate":              p.Rate.String(),
		"status":            string(p.Status),
		"bank":              p.Bank,
		"term_months":       p.TermMonths,
		"linked_account_id": optID(p.LinkedAccountID),
		"source_account_id": optID(p.SourceAccountID),
	}
}

func productList(products []domain.Product) []any {
	out := make([]any, 0, len(products))
	for _, p := range products {
		out = append(out, productMap(p))
	}
	return out
}

func catalogList(entries []domain.CatalogEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":          e.ID,
			"type":        string(e.Type),
			"name":        e.Name,
			"bank":        e.Bank,
			"rate":        e.Rate.String(),
			"term_months": e.TermMonths,
			"min_amount":  e.MinAmount.String(),
			"max_amount":  e.MaxAmount.String(),
		})
	}
	return out
}

func historyList(entries []domain.HistoryEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":             fmt.Sprint(e.ID),
			"date":           timestamp(e.Date),
			"kind":           string(e.Kind),
			"description":    e.Description,
			"account_number": e.AccountNumber,
			"from_account":   e.FromAccount,
			"to_account":     e.ToAccount,
			"amount":         e.Amount.String(),
			"bank":           e.Bank,
			"currency":       e.Currency,
		})
	}
	return out
}

func questMap(q *domain.Quest) any {
	if q == nil {
		return nil
	}
	p := q.Progress()
	return map[string]any{
		"id":               q.ID,
		"description":      q.Description,
		"prize":            q.PrizeDisplayName(),
		"target":           q.Target.String(),
		"current_progress": q.CurrentProgress.String(),
		"completed":        q.Completed,
		"points":           q.Points,
		"type":             string(q.Type),
		"progress_percent": p.Percent,
		"progress_text":    p.Text,
	}
}

func questList(quests []domain.Quest) []any {
	out := make([]any, 0, len(quests))
	for i := range quests {
		out = append(out, questMap(&quests[i]))
	}
	return out
}

func profileMap(p domain.Profile) map[string]any {
	history := make([]any, 0, len(p.LevelHistory))
	for _, l := range p.LevelHistory {
		history = append(history, map[string]any{
			"level":       string(l.Level),
			"points":      l.Points,
			"achieved_at": timestamp(l.AchievedAt),
		})
	}
	info := domain.InfoForPoints(p.ActivePoints)
	return map[string]any{
		"active_points":    p.ActivePoints,
		"is_premium":       p.IsPremium,
		"quests_completed": p.QuestsCompleted,
		"level":            string(info.Level),
		"level_min_points": info.MinPoints,
		"level_max_points": info.MaxPoints,
		"level_history":    history,
	}
}
