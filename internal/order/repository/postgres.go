package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperr"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertOrderQuery = `
    INSERT INTO orders (
        id, seller_id, cashier_id, cashier_name, status, discount, freight,
        other_costs, total, payments, installments, observation,
        delivery_address, customer_email, purchase_order_ref,
        created_at, completed_at
    )
    VALUES (
        :id, :seller_id, :cashier_id, :cashier_name, :status, :discount, :freight,
        :other_costs, :total, :payments, :installments, :observation,
        :delivery_address, :customer_email, :purchase_order_ref,
        :created_at, :completed_at
    )
`

const insertLineQuery = `
    INSERT INTO order_lines (
        id, order_id, product_id, product_code, product_name, unit,
        quantity, unit_price, original_price, total, observation, position
    )
    VALUES (
        :id, :order_id, :product_id, :product_code, :product_name, :unit,
        :quantity, :unit_price, :original_price, :total, :observation, :position
    )
`

func (r *PGRepository) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertOrderQuery, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if err := insertLines(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) Update(ctx context.Context, order *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `
        UPDATE orders SET
            seller_id = :seller_id, status = :status, discount = :discount,
            freight = :freight, other_costs = :other_costs, total = :total,
            payments = :payments, installments = :installments,
            observation = :observation, delivery_address = :delivery_address,
            customer_email = :customer_email, purchase_order_ref = :purchase_order_ref
        WHERE id = :id AND status IN ('budget', 'pending')
    `, order)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.explainMissedWrite(ctx, tx, order.ID, model.OrderStatus(""))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("failed to clear order lines: %w", err)
	}
	if err := insertLines(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.DB.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &order.Lines,
		`SELECT * FROM order_lines WHERE order_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.SellerID != "" {
		conditions = append(conditions, "seller_id = :seller_id")
		args["seller_id"] = f.SellerID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

// Complete flips the order to completed and settles stock in one unit of
// work. The WHERE status = 'pending' guard makes the flip conditional:
// whichever concurrent completion commits first wins, the other sees zero
// rows affected and reports the reason instead of double-decrementing.
func (r *PGRepository) Complete(ctx context.Context, order *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `
        UPDATE orders SET
            status = 'completed', cashier_id = :cashier_id,
            cashier_name = :cashier_name, discount = :discount,
            total = :total, payments = :payments, completed_at = :completed_at
        WHERE id = :id AND status = 'pending'
    `, order)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.explainMissedWrite(ctx, tx, order.ID, model.OrderStatusPending)
	}

	// Persist the prorated lines so the stored prices alone carry the
	// discounted total.
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("failed to clear order lines: %w", err)
	}
	if err := insertLines(ctx, tx, order); err != nil {
		return err
	}

	now := time.Now()
	for i := range order.Lines {
		line := &order.Lines[i]
		after, err := adjustStock(ctx, tx, line.ProductID, line.Quantity.Neg())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return explainMissedDecrement(ctx, tx, line)
			}
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		movement := &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      line.ProductID,
			MovementType:   model.MovementTypeSale,
			QuantityChange: line.Quantity.Neg(),
			QuantityBefore: after.Add(line.Quantity),
			QuantityAfter:  after,
			OrderID:        &order.ID,
			CreatedBy:      order.CashierID,
			CreatedAt:      now,
		}
		if err := insertMovement(ctx, tx, movement); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Cancel flips to cancelled conditional on the status the caller observed,
// restoring stock per line when the order had already been completed.
func (r *PGRepository) Cancel(ctx context.Context, order *model.Order, expectedStatus model.OrderStatus, restock bool) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = 'cancelled' WHERE id = $1 AND status = $2`,
		order.ID, expectedStatus)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.explainMissedWrite(ctx, tx, order.ID, expectedStatus)
	}

	if restock {
		now := time.Now()
		for i := range order.Lines {
			line := &order.Lines[i]
			after, err := adjustStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}

			movement := &model.StockMovement{
				ID:             uuid.New().String(),
				ProductID:      line.ProductID,
				MovementType:   model.MovementTypeRestock,
				QuantityChange: line.Quantity,
				QuantityBefore: after.Sub(line.Quantity),
				QuantityAfter:  after,
				OrderID:        &order.ID,
				CreatedBy:      order.CashierID,
				CreatedAt:      now,
			}
			if err := insertMovement(ctx, tx, movement); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// adjustStock applies a signed stock change; decrements are guarded in SQL so
// stock can never go negative, and the row lock held until commit closes the
// read-stale-stock race between concurrent completions.
func adjustStock(ctx context.Context, tx *sqlx.Tx, productID string, change decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := tx.GetContext(ctx, &after, `
        UPDATE products
        SET stock_quantity = stock_quantity + $1, updated_at = now()
        WHERE id = $2 AND stock_quantity + $1 >= 0
        RETURNING stock_quantity
    `, change, productID)
	return after, err
}

// explainMissedDecrement tells a stock shortage apart from a product that no
// longer exists; the guarded UPDATE reports both as zero rows.
func explainMissedDecrement(ctx context.Context, tx *sqlx.Tx, line *model.OrderLine) error {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return apperr.Consistency("product %q no longer exists", line.ProductName)
	}
	return apperr.InsufficientStock(line.ProductName)
}

func insertLines(ctx context.Context, tx *sqlx.Tx, order *model.Order) error {
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		if _, err := tx.NamedExecContext(ctx, insertLineQuery, line); err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}
	return nil
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, m *model.StockMovement) error {
	_, err := tx.NamedExecContext(ctx, `
        INSERT INTO stock_movements (
            id, product_id, movement_type, quantity_change,
            quantity_before, quantity_after, order_id, created_by, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :order_id, :created_by, :created_at
        )
    `, m)
	if err != nil {
		return fmt.Errorf("failed to log stock movement: %w", err)
	}
	return nil
}

// explainMissedWrite turns a zero-rows-affected conditional update into the
// precise consistency error.
func (r *PGRepository) explainMissedWrite(ctx context.Context, tx *sqlx.Tx, id string, expected model.OrderStatus) error {
	var status model.OrderStatus
	err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	switch status {
	case model.OrderStatusCompleted:
		return apperr.ErrAlreadyCompleted
	case model.OrderStatusCancelled:
		return apperr.ErrAlreadyCancelled
	}
	if expected == model.OrderStatusPending {
		return apperr.ErrNotPending
	}
	return apperr.Consistency("order %s was modified concurrently", id)
}
