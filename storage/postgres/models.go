package postgres

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/docvault/core"
)

type documentRow struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (documentRow) TableName() string { return "documents" }

type tagRow struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (tagRow) TableName() string { return "tags" }

type documentTagRow struct {
	DocumentID int64        `gorm:"primaryKey;autoIncrement:false"`
	TagID      int64        `gorm:"primaryKey;autoIncrement:false;index"`
	Document   *documentRow `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	Tag        *tagRow      `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (documentTagRow) TableName() string { return "document_tags" }

type chunkRow struct {
	ID         int64           `gorm:"primaryKey"`
	DocumentID int64           `gorm:"not null;index"`
	Chunk      string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536);not null"`
	Document   *documentRow    `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

func (chunkRow) TableName() string { return "document_information_chunks" }

func (r *documentRow) toCore(tags []string) *core.Document {
	if tags == nil {
		tags = []string{}
	}
	return &core.Document{
		Id:        core.ID(r.ID),
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Tags:      tags,
	}
}

func (r *tagRow) toCore() *core.Tag {
	return &core.Tag{Id: core.ID(r.ID), Name: r.Name}
}

func (r *chunkRow) toCore() *core.Chunk {
	return &core.Chunk{
		Id:         core.ID(r.ID),
		DocumentId: core.ID(r.DocumentID),
		Text:       r.Chunk,
		Vector:     r.Embedding.Slice(),
	}
}
