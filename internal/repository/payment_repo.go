package repository

import (
	"time"

	"gorm.io/gorm"

	"payflow/internal/models"
)

// PaymentRepository handles payment record database operations.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the record for a freshly initiated payment.
func (r *PaymentRepository) Create(record *models.PaymentRecord) error {
	return r.db.Create(record).Error
}

// FindAll returns payment records with pagination and search.
func (r *PaymentRepository) FindAll(limit, page int, query string) ([]models.PaymentRecord, int64, error) {
	var records []models.PaymentRecord
	var total int64

	db := r.db.Model(&models.PaymentRecord{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("reference LIKE ? OR email LIKE ? OR item_name LIKE ?",
			search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByReference returns a payment record by its platform reference.
func (r *PaymentRepository) FindByReference(reference string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.Where("reference = ?", reference).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBySessionID returns a payment record by checkout session id.
func (r *PaymentRepository) FindBySessionID(sessionID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateBySessionID merges terminal verification fields into the record.
func (r *PaymentRepository) UpdateBySessionID(sessionID string, updates map[string]interface{}) error {
	return r.db.Model(&models.PaymentRecord{}).Where("session_id = ?", sessionID).Updates(updates).Error
}

// CountByStatus counts records in a given state, for the daily summary.
func (r *PaymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentRecord{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// StaleProcessing returns records stuck in processing for longer than the
// verification budget allows, so the sweeper can mark them unconfirmed.
func (r *PaymentRepository) StaleProcessing(olderThan time.Time) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.Where("status = ? AND updated_at < ?", models.PaymentStatusProcessing, olderThan).
		Find(&records).Error
	return records, err
}
