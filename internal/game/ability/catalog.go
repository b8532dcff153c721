package ability

import "fmt"

// MinDuration floors haste-scaled durations so they stay positive and finite.
const MinDuration = 0.01

func offGCD() *float64 {
	z := 0.0
	return &z
}

// definitions is the read-only base table. Catalogs copy from it.
var definitions = []Descriptor{
	{ID: TigerPalm, Name: "Tiger Palm", Family: FamilyPalm, School: Physical,
		Coefficient: 0.27, EnergyCost: 50, ChiGain: 2, Ticks: 1, MaxCharges: 1,
		Known: true, AoE: Single, ComboStrike: true},
	{ID: BlackoutKick, Name: "Blackout Kick", Family: FamilyKick, School: Physical,
		Coefficient: 0.85, ChiCost: 1, Ticks: 1, MaxCharges: 1,
		Known: true, AoE: Single, ComboStrike: true},
	{ID: RisingSunKick, Name: "Rising Sun Kick", Family: FamilyKick, School: Physical,
		Coefficient: 1.44, ChiCost: 2, Cooldown: 10, HasteCooldown: true, Ticks: 1, MaxCharges: 1,
		Known: true, AoE: Single, ComboStrike: true},
	{ID: FistsOfFury, Name: "Fists of Fury", Family: FamilyFists, School: Physical,
		Coefficient: 4.2, ChiCost: 3, Cooldown: 24, HasteCooldown: true,
		ChannelTime: 4.0, HasteChannel: true, Ticks: 5, MaxCharges: 1,
		Known: true, AoE: SoftCap, Cap: 5, ComboStrike: true},
	{ID: SpinningCraneKick, Name: "Spinning Crane Kick", Family: FamilyCrane, School: Physical,
		Coefficient: 0.9, ChiCost: 2, ChannelTime: 1.5, HasteChannel: true, Ticks: 4, MaxCharges: 1,
		Known: true, AoE: SoftCap, Cap: 5, ComboStrike: true},
	{ID: WhirlingDragonPunch, Name: "Whirling Dragon Punch", Family: FamilyDragon, School: Physical,
		Coefficient: 1.2, Cooldown: 24, HasteCooldown: true, ChannelTime: 1.0, Ticks: 3, MaxCharges: 1,
		AoE: SoftCap, Cap: 8, ComboStrike: true},
	{ID: StrikeOfTheWindlord, Name: "Strike of the Windlord", Family: FamilyWindlord, School: Physical,
		Coefficient: 2.2, ChiCost: 2, Cooldown: 40, Ticks: 1, MaxCharges: 1,
		AoE: SoftCap, Cap: 5, ComboStrike: true},
	{ID: TouchOfDeath, Name: "Touch of Death", Family: FamilyTouch, School: Physical,
		Coefficient: 8.0, Cooldown: 90, Ticks: 1, MaxCharges: 1,
		Known: true, AoE: Single, ComboStrike: true},
	{ID: TigereyeBrew, Name: "Tigereye Brew", Family: FamilyUtility, School: Physical,
		Cooldown: 60, MaxCharges: 1, AoE: Single, GCD: offGCD(), BuffDuration: 20},
	{ID: Zenith, Name: "Zenith", Family: FamilyUtility, School: Physical,
		Cooldown: 90, MaxCharges: 1, AoE: Single, GCD: offGCD(), BuffDuration: 15},
}

// auxiliary is the read-only table of damage sources that are resolved but never cast.
var auxiliary = []Descriptor{
	{ID: AutoAttack, Name: "Melee", Family: FamilyMelee, School: Physical, Ticks: 1, AoE: Single},
	{ID: DualThreat, Name: "Dual Threat", Family: FamilyMelee, School: Physical, Coefficient: 1.10, Ticks: 1, AoE: Single},
	{ID: ThunderfistHit, Name: "Thunderfist", Family: FamilyProc, School: Nature, Coefficient: 1.6, Ticks: 1, AoE: Single},
	{ID: ChiExplosion, Name: "Chi Explosion", Family: FamilyCrane, School: Nature, Coefficient: 1.0, Ticks: 1, AoE: Uncapped},
	{ID: CombatWisdom, Name: "Combat Wisdom", Family: FamilyProc, School: Nature, Coefficient: 0.5, Ticks: 1, AoE: Single},
	{ID: TeachingsHit, Name: "Teachings of the Monastery", Family: FamilyKick, School: Physical, Coefficient: 0.40, Ticks: 1, AoE: Single},
}

// Catalog is one simulation instance's mutable copy of the action table.
// It is not safe for concurrent use.
type Catalog struct {
	order []ID
	byID  map[ID]*Descriptor
	aux   map[ID]*Descriptor
}

// NewCatalog copies the base tables into a fresh Catalog with full charges.
//
// Postcondition: every descriptor has Charges == MaxCharges and CurrentCooldown == 0.
func NewCatalog() *Catalog {
	c := &Catalog{
		byID: make(map[ID]*Descriptor, len(definitions)),
		aux:  make(map[ID]*Descriptor, len(auxiliary)),
	}
	for i := range definitions {
		d := definitions[i].clone()
		c.order = append(c.order, d.ID)
		c.byID[d.ID] = d
	}
	for i := range auxiliary {
		d := auxiliary[i].clone()
		c.aux[d.ID] = d
	}
	return c
}

// Get returns the castable action with id, or (nil, false).
func (c *Catalog) Get(id ID) (*Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Lookup returns a castable action or auxiliary damage source by id.
func (c *Catalog) Lookup(id ID) (*Descriptor, bool) {
	if d, ok := c.byID[id]; ok {
		return d, true
	}
	d, ok := c.aux[id]
	return d, ok
}

// MustGet returns the descriptor with id, castable or auxiliary, and panics if absent.
func (c *Catalog) MustGet(id ID) *Descriptor {
	d, ok := c.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("ability: unknown action %q", id))
	}
	return d
}

// IDs returns the castable action ids in catalog order.
func (c *Catalog) IDs() []ID {
	return append([]ID(nil), c.order...)
}

// Actions returns the castable descriptors in catalog order.
func (c *Catalog) Actions() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Scaled divides base by (1+haste), flooring both the divisor and the result
// above zero.
func Scaled(base, haste float64) float64 {
	div := 1 + haste
	if div < MinDuration {
		div = MinDuration
	}
	v := base / div
	if v < MinDuration {
		v = MinDuration
	}
	return v
}

// CooldownFor returns the cooldown a new recharge of d takes at haste.
func (d *Descriptor) CooldownFor(haste float64) float64 {
	if d.HasteCooldown {
		return Scaled(d.Cooldown, haste)
	}
	return d.Cooldown
}

// ChannelFor returns the channel duration of d at haste.
func (d *Descriptor) ChannelFor(haste float64) float64 {
	if d.HasteChannel {
		return Scaled(d.ChannelTime, haste)
	}
	return d.ChannelTime
}

// Spend consumes one charge of d. The recharge timer starts only when d was
// at full charges; otherwise the running recharge continues.
//
// Precondition: d.Charges > 0.
// Postcondition: Charges decreased by one; CurrentCooldown >= 0.
func (c *Catalog) Spend(d *Descriptor, haste float64) {
	if d.Cooldown <= 0 {
		return
	}
	if d.Charges >= d.MaxCharges {
		d.CurrentCooldown = d.CooldownFor(haste)
	}
	if d.Charges > 0 {
		d.Charges--
	}
}

// Reset restores all charges of id and clears its cooldown. Unknown ids are ignored.
//
// Postcondition: Charges == MaxCharges and CurrentCooldown == 0.
func (c *Catalog) Reset(id ID) {
	if d, ok := c.byID[id]; ok {
		d.Charges = d.MaxCharges
		d.CurrentCooldown = 0
	}
}

// Tick advances every recharging action by dt. A finished recharge restores
// one charge and starts the next recharge if charges are still missing.
//
// Postcondition: for every descriptor, 0 <= Charges <= MaxCharges and CurrentCooldown >= 0.
func (c *Catalog) Tick(dt, haste float64) {
	for _, id := range c.order {
		d := c.byID[id]
		if d.Charges >= d.MaxCharges {
			d.CurrentCooldown = 0
			continue
		}
		d.CurrentCooldown -= dt
		if d.CurrentCooldown > 1e-9 {
			continue
		}
		d.Charges++
		d.CurrentCooldown = 0
		if d.Charges < d.MaxCharges {
			d.CurrentCooldown = d.CooldownFor(haste)
		}
	}
}

// CooldownFraction returns the remaining recharge of d as a fraction of its
// base cooldown while no charge is available, and 0 otherwise.
//
// Postcondition: result is in [0, 1] for non-negative haste.
func (d *Descriptor) CooldownFraction() float64 {
	if d.Charges > 0 || d.Cooldown <= 0 {
		return 0
	}
	f := d.CurrentCooldown / d.Cooldown
	if f > 1 {
		f = 1
	}
	return f
}
