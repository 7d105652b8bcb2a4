package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExpenseCategory string

const (
	CategoryMaterials ExpenseCategory = "Materials"
	CategoryLabor     ExpenseCategory = "Labor"
	CategoryEquipment ExpenseCategory = "Equipment"
	CategoryTransport ExpenseCategory = "Transport"
	CategoryPermits   ExpenseCategory = "Permits"
	CategoryServices  ExpenseCategory = "Services"
	CategoryOther     ExpenseCategory = "Other"
)

var AllExpenseCategories = []ExpenseCategory{
	CategoryMaterials, CategoryLabor, CategoryEquipment, CategoryTransport,
	CategoryPermits, CategoryServices, CategoryOther,
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range AllExpenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

type Attachment struct {
	ID   primitive.ObjectID `json:"id" bson:"_id"`
	Name string             `json:"name" bson:"name"`
	Path string             `json:"path" bson:"path"`
	Size int64              `json:"size" bson:"size"`
}

type Expense struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID   primitive.ObjectID `json:"projectId" bson:"project_id"`
	Description string             `json:"description" bson:"description"`
	Amount      float64            `json:"amount" bson:"amount"`
	Category    ExpenseCategory    `json:"category" bson:"category"`
	Date        time.Time          `json:"date" bson:"date"`
	RecordedBy  primitive.ObjectID `json:"recordedBy" bson:"recorded_by"`
	DoneBy      string             `json:"doneBy" bson:"done_by"`
	Attachments []Attachment       `json:"attachments" bson:"attachments"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}
