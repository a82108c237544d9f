// Package pricing фиксирует цены товаров каталога в позициях заказа.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/repository"
)

// maxParallelLookups ограничивает число одновременных запросов к каталогу.
const maxParallelLookups = 8

var (
	// ErrNoLines возвращается для заказа без позиций.
	ErrNoLines = errors.New("order has no lines")
	// ErrInvalidQuantity возвращается, если количество в позиции вне диапазона [1, model.MaxLineQuantity].
	ErrInvalidQuantity = errors.New("line quantity out of range")
)

// ProductNotFoundError сообщает, что позиция ссылается на отсутствующий товар.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// Catalog описывает чтение товаров, необходимое для расчёта цен.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// Snapshot разрешает товары каждой запрошенной позиции и фиксирует их текущую цену.
// Порядок позиций совпадает с порядком запроса. Если хотя бы один товар не найден,
// возвращается ProductNotFoundError для первой такой позиции и ни одной позиции.
func Snapshot(ctx context.Context, catalog Catalog, requested []model.LineRequest) ([]model.OrderLine, decimal.Decimal, error) {
	if len(requested) == 0 {
		return nil, decimal.Zero, ErrNoLines
	}
	for _, r := range requested {
		if r.Quantity < 1 || r.Quantity > model.MaxLineQuantity {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d", ErrInvalidQuantity, r.ProductID)
		}
	}

	products := make([]*model.Product, len(requested))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)

	for i, r := range requested {
		g.Go(func() error {
			p, err := catalog.GetProduct(gctx, r.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return nil
				}
				return fmt.Errorf("get product %d: %w", r.ProductID, err)
			}
			products[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]model.OrderLine, 0, len(requested))
	total := decimal.Zero
	for i, r := range requested {
		p := products[i]
		if p == nil {
			return nil, decimal.Zero, &ProductNotFoundError{ProductID: r.ProductID}
		}

		lines = append(lines, model.OrderLine{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	return lines, total, nil
}
