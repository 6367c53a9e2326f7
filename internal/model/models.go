package model

import (
	"time"

	"gorm.io/gorm"
)

// Bed represents a fixed-geometry cultivation strip
type Bed struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name           string  `gorm:"not null;size:255" json:"name"`
	WidthM         float64 `gorm:"type:decimal(10,2);not null" json:"width_m"`
	LengthM        float64 `gorm:"type:decimal(10,2);not null" json:"length_m"`
	IrrigationType string  `gorm:"size:64" json:"irrigation_type"`

	// Relationships
	Plantings []Planting `gorm:"foreignKey:BedID;constraint:OnDelete:CASCADE" json:"plantings,omitempty"`
}

// TableName specifies the table name for Bed
func (Bed) TableName() string {
	return "beds"
}

// Species holds the agronomic figures of a crop
type Species struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name            string   `gorm:"not null;size:255;uniqueIndex" json:"name"`
	WaterNeedLevel  *int     `json:"water_need_level,omitempty"`
	PlantSpacingCm  float64  `gorm:"type:decimal(10,2)" json:"plant_spacing_cm"`
	MinRowSpacingCm *float64 `gorm:"type:decimal(10,2)" json:"min_row_spacing_cm,omitempty"`
	YieldPerM2Kg    float64  `gorm:"type:decimal(10,3)" json:"yield_per_m2_kg"`
	YieldPerPlantKg float64  `gorm:"type:decimal(10,3)" json:"yield_per_plant_kg"`
}

// TableName specifies the table name for Species
func (Species) TableName() string {
	return "species"
}

// CultivationPlan is a species-specific template; every week field is optional
type CultivationPlan struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SpeciesID uint   `gorm:"not null;index" json:"species_id"`
	Name      string `gorm:"not null;size:255" json:"name"`

	SowWeek              *int `json:"sow_week,omitempty"`
	TransplantWeek       *int `json:"transplant_week,omitempty"`
	HarvestWeek          *int `json:"harvest_week,omitempty"`
	HarvestDurationWeeks *int `json:"harvest_duration_weeks,omitempty"`
	NurseryDurationDays  *int `json:"nursery_duration_days,omitempty"`
	TotalDurationDays    *int `json:"total_duration_days,omitempty"`
	MaxWeekShift         int  `gorm:"not null;default:0" json:"max_week_shift"`

	RowCountDefault     *int     `json:"row_count_default,omitempty"`
	RowSpacingDefaultCm *float64 `gorm:"type:decimal(10,2)" json:"row_spacing_default_cm,omitempty"`

	// Relationships
	Species Species `gorm:"foreignKey:SpeciesID" json:"species,omitempty"`
}

// TableName specifies the table name for CultivationPlan
func (CultivationPlan) TableName() string {
	return "cultivation_plans"
}

// Planting is a placement of a cultivation plan on a bed. It is active until FinishedAt is set.
type Planting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BedID             uint `gorm:"not null;index:idx_bed_active,priority:1" json:"bed_id"`
	CultivationPlanID uint `gorm:"not null;index" json:"cultivation_plan_id"`

	RowCount     int     `gorm:"not null" json:"row_count"`
	RowSpacingCm float64 `gorm:"type:decimal(10,2);not null" json:"row_spacing_cm"`
	LengthM      float64 `gorm:"type:decimal(10,2);not null" json:"length_m"`

	PlantingDate  time.Time  `gorm:"not null" json:"planting_date"`
	LastWateredAt *time.Time `json:"last_watered_at,omitempty"`
	FinishedAt    *time.Time `gorm:"index:idx_bed_active,priority:2" json:"finished_at,omitempty"`

	// Relationships
	Bed              Bed               `gorm:"foreignKey:BedID" json:"bed,omitempty"`
	CultivationPlan  CultivationPlan   `gorm:"foreignKey:CultivationPlanID" json:"cultivation_plan,omitempty"`
	IrrigationEvents []IrrigationEvent `gorm:"foreignKey:PlantingID;constraint:OnDelete:CASCADE" json:"irrigation_events,omitempty"`
}

// TableName specifies the table name for Planting
func (Planting) TableName() string {
	return "plantings"
}

// Active reports whether the planting still occupies its bed
func (p Planting) Active() bool {
	return p.FinishedAt == nil
}

// ApplyPlanDefaults fills unset row geometry from the plan's defaults
func (p *Planting) ApplyPlanDefaults(plan CultivationPlan) {
	if p.RowCount == 0 && plan.RowCountDefault != nil {
		p.RowCount = *plan.RowCountDefault
	}
	if p.RowSpacingCm == 0 && plan.RowSpacingDefaultCm != nil {
		p.RowSpacingCm = *plan.RowSpacingDefaultCm
	}
}

// BeforeSave keeps every stored instant in UTC
func (p *Planting) BeforeSave(tx *gorm.DB) error {
	p.PlantingDate = p.PlantingDate.UTC()
	p.LastWateredAt = utcPtr(p.LastWateredAt)
	p.FinishedAt = utcPtr(p.FinishedAt)
	return nil
}

// BeforeCreate hook to fill row geometry from the cultivation plan if not set
func (p *Planting) BeforeCreate(tx *gorm.DB) error {
	if p.RowCount != 0 && p.RowSpacingCm != 0 {
		return nil
	}
	plan := p.CultivationPlan
	if plan.ID == 0 && p.CultivationPlanID != 0 {
		if err := tx.Session(&gorm.Session{NewDB: true}).First(&plan, p.CultivationPlanID).Error; err != nil {
			return err
		}
	}
	p.ApplyPlanDefaults(plan)
	return nil
}

// IrrigationEvent is a planned or performed watering. Events are only ever appended;
// completing one sets Done and ActualDate.
type IrrigationEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PlantingID  uint       `gorm:"not null;index:idx_planting_planned,priority:1" json:"planting_id"`
	PlannedDate time.Time  `gorm:"not null;index:idx_planting_planned,priority:2" json:"planned_date"`
	ActualDate  *time.Time `json:"actual_date,omitempty"`
	Done        bool       `gorm:"not null;default:false" json:"done"`
}

// BeforeSave keeps every stored instant in UTC
func (e *IrrigationEvent) BeforeSave(tx *gorm.DB) error {
	e.PlannedDate = e.PlannedDate.UTC()
	e.ActualDate = utcPtr(e.ActualDate)
	return nil
}

// TableName specifies the table name for IrrigationEvent
func (IrrigationEvent) TableName() string {
	return "irrigation_events"
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{&Species{}, &CultivationPlan{}, &Bed{}, &Planting{}, &IrrigationEvent{}}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
