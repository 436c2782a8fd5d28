package world

import modelpkg "settle.ai/internal/sim/world/kernel/model"

type Vec2i = modelpkg.Vec2i
type Occupancy = modelpkg.Occupancy
