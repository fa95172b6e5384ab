package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pedraum/payments/internal/cache"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const quoteTTL = 30 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cache cache.Cache[string, pricingdomain.Quote]
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cache cache.Cache[string, pricingdomain.Quote]
}

func NewService(p Params) pricingdomain.Resolver {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricing.service"),
		cache: p.Cache,
	}
}

// location is one entry of the ordered fallback search. The order is data,
// not control flow, so schema-drift locations can be added or retired
// without touching the resolution loop.
type location struct {
	path  string
	query string
	args  func(req pricingdomain.ResolveRequest) ([]any, bool)
}

const candidateColumns = `SELECT price, value, amount, valor, preco FROM `

func resourceArgs(req pricingdomain.ResolveRequest) ([]any, bool) {
	if req.ResourceID == "" {
		return nil, false
	}
	return []any{req.ResourceID}, true
}

func relatedArgs(req pricingdomain.ResolveRequest) ([]any, bool) {
	if req.RelatedID == "" {
		return nil, false
	}
	return []any{req.RelatedID}, true
}

func nestedArgs(req pricingdomain.ResolveRequest) ([]any, bool) {
	if req.RelatedID == "" || req.ResourceID == "" {
		return nil, false
	}
	return []any{req.RelatedID, req.ResourceID}, true
}

// searchOrder encodes the historical schema drift: direct lead record,
// opportunity record under both its namings, the nested record under the
// parent demand, then the demand itself.
var searchOrder = []location{
	{path: "leads", query: candidateColumns + `leads WHERE id = ?`, args: resourceArgs},
	{path: "opportunities", query: candidateColumns + `opportunities WHERE id = ?`, args: resourceArgs},
	{path: "lead_opportunities", query: candidateColumns + `lead_opportunities WHERE id = ?`, args: resourceArgs},
	{path: "demand_leads", query: candidateColumns + `demand_leads WHERE demand_id = ? AND lead_id = ?`, args: nestedArgs},
	{path: "demands", query: candidateColumns + `demands WHERE id = ?`, args: relatedArgs},
}

// hintTables maps a path-hint prefix onto a queryable location. Unknown
// prefixes are ignored so a stale hint degrades to the regular search.
var hintTables = map[string]string{
	"leads":              `leads WHERE id = ?`,
	"opportunities":      `opportunities WHERE id = ?`,
	"lead_opportunities": `lead_opportunities WHERE id = ?`,
	"demands":            `demands WHERE id = ?`,
}

type candidateRow struct {
	Price  *float64
	Value  *float64
	Amount *float64
	Valor  *float64
	Preco  *float64
}

func (r candidateRow) fieldValue(field string) *float64 {
	switch field {
	case "price":
		return r.Price
	case "value":
		return r.Value
	case "amount":
		return r.Amount
	case "valor":
		return r.Valor
	case "preco":
		return r.Preco
	}
	return nil
}

// firstUsable scans the fixed field order and returns the first finite
// positive value.
func (r candidateRow) firstUsable() (string, float64, bool) {
	for _, field := range pricingdomain.CandidateFields {
		value := r.fieldValue(field)
		if value == nil {
			continue
		}
		v := *value
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		return field, v, true
	}
	return "", 0, false
}

func (s *Service) Resolve(ctx context.Context, req pricingdomain.ResolveRequest) (pricingdomain.Quote, error) {
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.RelatedID = strings.TrimSpace(req.RelatedID)
	req.PathHint = strings.TrimSpace(req.PathHint)
	if req.ResourceID == "" {
		return pricingdomain.Quote{}, pricingdomain.ErrInvalidResource
	}

	cacheKey := req.ResourceID + "|" + req.RelatedID + "|" + req.PathHint
	if quote, ok := s.cache.Get(cacheKey); ok {
		return quote, nil
	}

	locations := searchOrder
	if hint, ok := s.hintLocation(req.PathHint); ok {
		locations = append([]location{hint}, searchOrder...)
	}

	for _, loc := range locations {
		args, ok := loc.args(req)
		if !ok {
			continue
		}
		var row candidateRow
		if err := s.db.WithContext(ctx).Raw(loc.query, args...).Scan(&row).Error; err != nil {
			return pricingdomain.Quote{}, err
		}
		field, value, ok := row.firstUsable()
		if !ok {
			continue
		}
		quote := pricingdomain.Quote{
			Price: value,
			Path:  loc.path + "/" + strings.Join(stringArgs(args), "/"),
			Field: field,
		}
		s.cache.Set(cacheKey, quote, quoteTTL)
		return quote, nil
	}

	return pricingdomain.Quote{}, pricingdomain.ErrPriceNotFound
}

// hintLocation turns a caller-supplied "table/id" hint into a location
// checked ahead of the ordered list. A hint without a usable field falls
// through to the regular search rather than short-circuiting.
func (s *Service) hintLocation(hint string) (location, bool) {
	if hint == "" {
		return location{}, false
	}
	parts := strings.Split(hint, "/")
	if len(parts) == 3 && parts[0] == "demand_leads" && parts[1] != "" && parts[2] != "" {
		demandID, leadID := parts[1], parts[2]
		return location{
			path:  "demand_leads",
			query: candidateColumns + `demand_leads WHERE demand_id = ? AND lead_id = ?`,
			args: func(pricingdomain.ResolveRequest) ([]any, bool) {
				return []any{demandID, leadID}, true
			},
		}, true
	}
	if len(parts) != 2 || parts[1] == "" {
		return location{}, false
	}
	clause, ok := hintTables[parts[0]]
	if !ok {
		s.log.Debug("ignoring unknown price path hint", zap.String("hint", hint))
		return location{}, false
	}
	id := parts[1]
	return location{
		path:  parts[0],
		query: candidateColumns + clause,
		args: func(pricingdomain.ResolveRequest) ([]any, bool) {
			return []any{id}, true
		},
	}, true
}

func stringArgs(args []any) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if s, ok := arg.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
