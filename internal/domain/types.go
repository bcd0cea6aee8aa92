package domain

import "github.com/google/uuid"

type AdminID = uuid.UUID
