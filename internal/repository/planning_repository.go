package repository

import (
	"errors"
	"fmt"
	"time"

	"cultivation-planner/internal/capacity"
	"cultivation-planner/internal/model"
	"cultivation-planner/internal/triage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrCapacityConflict is returned when a planting no longer fits at write time
	ErrCapacityConflict = errors.New("bed capacity exceeded")
	// ErrAlreadyRetired is returned when retiring a planting twice
	ErrAlreadyRetired = errors.New("planting already retired")
)

// CapacityConflictError carries the capacity result that rejected a write
type CapacityConflictError struct {
	Result capacity.Result
}

func (e *CapacityConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCapacityConflict, e.Result.Message)
}

func (e *CapacityConflictError) Unwrap() error {
	return ErrCapacityConflict
}

// EventFilter narrows ListIrrigationEvents; zero fields are ignored
type EventFilter struct {
	PlantingID *uint
	BedID      *uint
	From       *time.Time
	To         *time.Time
}

// PlanningRepository defines the data operations of the planning engine
type PlanningRepository interface {
	GetBed(id uint) (*model.Bed, error)
	ListActivePlantings(bedID uint) ([]model.Planting, error)
	GetPlanting(id uint) (*model.Planting, error)
	GetCultivationPlan(id uint) (*model.CultivationPlan, error)
	GetSpecies(id uint) (*model.Species, error)
	ListIrrigationEvents(filter EventFilter) ([]model.IrrigationEvent, error)
	ListActivePlantingsDetailed() ([]model.Planting, error)

	CreatePlanting(p *model.Planting, marginM float64) error
	RetirePlanting(id uint, at time.Time) error
	ApplyWatering(cs triage.ChangeSet) error
	AppendIrrigationEvents(events []model.IrrigationEvent) error
}

// planningRepository implements PlanningRepository
type planningRepository struct {
	db *gorm.DB
}

// NewPlanningRepository creates a new planning repository
func NewPlanningRepository(db *gorm.DB) PlanningRepository {
	return &planningRepository{db: db}
}

// GetBed fetches a bed by ID
func (r *planningRepository) GetBed(id uint) (*model.Bed, error) {
	var bed model.Bed
	if err := r.db.First(&bed, id).Error; err != nil {
		return nil, notFound("bed", id, err)
	}
	return &bed, nil
}

// ListActivePlantings returns the plantings currently occupying a bed
func (r *planningRepository) ListActivePlantings(bedID uint) ([]model.Planting, error) {
	return listActive(r.db, bedID)
}

// GetPlanting fetches a planting with its bed, plan and species
func (r *planningRepository) GetPlanting(id uint) (*model.Planting, error) {
	var p model.Planting
	err := r.db.
		Preload("Bed").
		Preload("CultivationPlan.Species").
		First(&p, id).Error
	if err != nil {
		return nil, notFound("planting", id, err)
	}
	return &p, nil
}

// GetCultivationPlan fetches a plan with its species
func (r *planningRepository) GetCultivationPlan(id uint) (*model.CultivationPlan, error) {
	var plan model.CultivationPlan
	if err := r.db.Preload("Species").First(&plan, id).Error; err != nil {
		return nil, notFound("cultivation plan", id, err)
	}
	return &plan, nil
}

// GetSpecies fetches a species by ID
func (r *planningRepository) GetSpecies(id uint) (*model.Species, error) {
	var s model.Species
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, notFound("species", id, err)
	}
	return &s, nil
}

// ListIrrigationEvents returns events ordered by planned date
func (r *planningRepository) ListIrrigationEvents(filter EventFilter) ([]model.IrrigationEvent, error) {
	query := r.db.Model(&model.IrrigationEvent{})

	if filter.PlantingID != nil {
		query = query.Where("irrigation_events.planting_id = ?", *filter.PlantingID)
	}
	if filter.BedID != nil {
		query = query.
			Joins("JOIN plantings ON plantings.id = irrigation_events.planting_id").
			Where("plantings.bed_id = ?", *filter.BedID)
	}
	if filter.From != nil {
		query = query.Where("irrigation_events.planned_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("irrigation_events.planned_date <= ?", filter.To.UTC())
	}

	var events []model.IrrigationEvent
	err := query.
		Order("irrigation_events.planned_date ASC").
		Order("irrigation_events.id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListActivePlantingsDetailed returns every active planting with what triage needs preloaded
func (r *planningRepository) ListActivePlantingsDetailed() ([]model.Planting, error) {
	var plantings []model.Planting
	err := r.db.
		Preload("Bed").
		Preload("CultivationPlan.Species").
		Preload("IrrigationEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("planned_date ASC")
		}).
		Where("finished_at IS NULL").
		Order("bed_id ASC").
		Order("id ASC").
		Find(&plantings).Error
	if err != nil {
		return nil, err
	}
	return plantings, nil
}

// CreatePlanting stores a planting after re-checking the bed's capacity inside the
// same transaction, so two concurrent placements cannot both take the last rows.
func (r *planningRepository) CreatePlanting(p *model.Planting, marginM float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		bedQuery := tx
		if tx.Dialector.Name() == "postgres" {
			bedQuery = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var bed model.Bed
		if err := bedQuery.First(&bed, p.BedID).Error; err != nil {
			return notFound("bed", p.BedID, err)
		}

		var plan model.CultivationPlan
		if err := tx.First(&plan, p.CultivationPlanID).Error; err != nil {
			return notFound("cultivation plan", p.CultivationPlanID, err)
		}
		p.ApplyPlanDefaults(plan)
		if p.LengthM == 0 {
			p.LengthM = bed.LengthM
		}

		existing, err := listActive(tx, bed.ID)
		if err != nil {
			return err
		}

		length := p.LengthM
		result, err := capacity.New(marginM).Validate(
			capacity.Bed{ID: bed.ID, WidthM: bed.WidthM, LengthM: bed.LengthM},
			toCapacityPlantings(existing),
			capacity.Candidate{RowCount: p.RowCount, RowSpacingCm: p.RowSpacingCm, LengthM: &length},
		)
		if err != nil {
			return err
		}
		if !result.Possible {
			return &CapacityConflictError{Result: result}
		}

		return tx.Omit(clause.Associations).Create(p).Error
	})
}

// RetirePlanting marks a planting finished, freeing its rows
func (r *planningRepository) RetirePlanting(id uint, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var p model.Planting
		if err := tx.First(&p, id).Error; err != nil {
			return notFound("planting", id, err)
		}
		if !p.Active() {
			return fmt.Errorf("%w: planting %d", ErrAlreadyRetired, id)
		}
		return tx.Model(&p).Update("finished_at", at.UTC()).Error
	})
}

// ApplyWatering persists a watering change-set atomically: either every planting gets
// its new baseline and its due events completed, or nothing changes.
func (r *planningRepository) ApplyWatering(cs triage.ChangeSet) error {
	if len(cs.Updates) == 0 {
		return triage.ErrEmptyChangeSet
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Planting{}).
			Where("id IN ?", cs.PlantingIDs).
			Where("finished_at IS NULL").
			Count(&count).Error
		if err != nil {
			return err
		}
		if int(count) != len(cs.PlantingIDs) {
			return fmt.Errorf("%w: %d of %d plantings are not active", ErrNotFound, len(cs.PlantingIDs)-int(count), len(cs.PlantingIDs))
		}

		for _, u := range cs.Updates {
			err := tx.Model(&model.Planting{}).
				Where("id = ?", u.PlantingID).
				Update("last_watered_at", u.LastWateredAt.UTC()).Error
			if err != nil {
				return fmt.Errorf("failed to update planting %d: %w", u.PlantingID, err)
			}
		}

		at := cs.WateredAt.UTC()
		return tx.Model(&model.IrrigationEvent{}).
			Where("planting_id IN ?", cs.PlantingIDs).
			Where("done = ?", false).
			Where("planned_date <= ?", at).
			Updates(map[string]interface{}{"done": true, "actual_date": at}).Error
	})
}

// AppendIrrigationEvents inserts new events; existing ones are never rewritten
func (r *planningRepository) AppendIrrigationEvents(events []model.IrrigationEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.Create(&events).Error
}

func listActive(db *gorm.DB, bedID uint) ([]model.Planting, error) {
	var plantings []model.Planting
	err := db.
		Where("bed_id = ? AND finished_at IS NULL", bedID).
		Order("id ASC").
		Find(&plantings).Error
	if err != nil {
		return nil, err
	}
	return plantings, nil
}

func toCapacityPlantings(plantings []model.Planting) []capacity.Planting {
	out := make([]capacity.Planting, 0, len(plantings))
	for _, p := range plantings {
		out = append(out, capacity.Planting{
			ID:           p.ID,
			RowCount:     p.RowCount,
			RowSpacingCm: p.RowSpacingCm,
			LengthM:      p.LengthM,
		})
	}
	return out
}

func notFound(what string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}
