package app

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/secondary"
)

// ============================================================================
// Organisations
// ============================================================================

// mockOrganisationRepository implements secondary.OrganisationRepository for testing.
type mockOrganisationRepository struct {
	orgs    map[string]*secondary.OrganisationRecord
	catalog map[string]map[string]string // type ID -> type tags
	types   map[string][]string          // org ID -> type IDs
	tags    map[string]map[string]string
}

func newMockOrganisationRepository() *mockOrganisationRepository {
	return &mockOrganisationRepository{
		orgs: make(map[string]*secondary.OrganisationRecord),
		catalog: map[string]map[string]string{
			"PUBLIC":     {},
			"COMMERCIAL": {"Commercial": "Y", "VERIFREQ": "Y"},
			"PHARMACY":   {"MINFOREQ": "Y"},
		},
		types: make(map[string][]string),
		tags:  make(map[string]map[string]string),
	}
}

func (m *mockOrganisationRepository) Create(ctx context.Context, org *secondary.OrganisationRecord) error {
	m.orgs[org.ID] = org
	return nil
}

func (m *mockOrganisationRepository) GetByID(ctx context.Context, id string) (*secondary.OrganisationRecord, error) {
	if o, ok := m.orgs[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, fmt.Errorf("organisation %s: %w", id, secondary.ErrNotFound)
}

func (m *mockOrganisationRepository) List(ctx context.Context) ([]*secondary.OrganisationRecord, error) {
	var result []*secondary.OrganisationRecord
	for _, o := range m.orgs {
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrganisationRepository) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("ORG-%03d", len(m.orgs)+1), nil
}

func (m *mockOrganisationRepository) GetTypeTags(ctx context.Context, organisationID string) (map[string]map[string]string, error) {
	result := map[string]map[string]string{}
	for _, id := range m.types[organisationID] {
		result[id] = m.catalog[id]
	}
	return result, nil
}

func (m *mockOrganisationRepository) SetTypes(ctx context.Context, organisationID string, typeIDs []string) error {
	for _, id := range typeIDs {
		if _, ok := m.catalog[id]; !ok {
			return fmt.Errorf("organisation type %s: %w", id, secondary.ErrNotFound)
		}
	}
	m.types[organisationID] = slices.Clone(typeIDs)
	return nil
}

func (m *mockOrganisationRepository) GetTags(ctx context.Context, organisationID string) (map[string]string, error) {
	result := map[string]string{}
	for k, v := range m.tags[organisationID] {
		result[k] = v
	}
	return result, nil
}

func (m *mockOrganisationRepository) AddTag(ctx context.Context, organisationID, tag, value string) error {
	if m.tags[organisationID] == nil {
		m.tags[organisationID] = map[string]string{}
	}
	m.tags[organisationID][tag] = value
	return nil
}

// ============================================================================
// Verifications
// ============================================================================

// mockVerificationRepository implements secondary.VerificationRepository for testing.
type mockVerificationRepository struct {
	records map[string]*secondary.VerificationRecord
	creates int
}

func newMockVerificationRepository() *mockVerificationRepository {
	return &mockVerificationRepository{records: make(map[string]*secondary.VerificationRecord)}
}

func (m *mockVerificationRepository) Get(ctx context.Context, organisationID string) (*secondary.VerificationRecord, error) {
	if v, ok := m.records[organisationID]; ok {
		c := *v
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockVerificationRepository) Create(ctx context.Context, v *secondary.VerificationRecord) error {
	c := *v
	m.records[v.OrganisationID] = &c
	m.creates++
	return nil
}

func (m *mockVerificationRepository) Update(ctx context.Context, v *secondary.VerificationRecord) error {
	if _, ok := m.records[v.OrganisationID]; !ok {
		return secondary.ErrNotFound
	}
	c := *v
	m.records[v.OrganisationID] = &c
	return nil
}

// ============================================================================
// Commissions
// ============================================================================

// mockCommissionRepository implements secondary.CommissionRepository for testing.
type mockCommissionRepository struct {
	records map[string]*secondary.CommissionRecord
}

func newMockCommissionRepository() *mockCommissionRepository {
	return &mockCommissionRepository{records: make(map[string]*secondary.CommissionRecord)}
}

func (m *mockCommissionRepository) Create(ctx context.Context, c *secondary.CommissionRecord) error {
	cp := *c
	m.records[c.ID] = &cp
	return nil
}

func (m *mockCommissionRepository) GetByID(ctx context.Context, id string) (*secondary.CommissionRecord, error) {
	if c, ok := m.records[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockCommissionRepository) Update(ctx context.Context, c *secondary.CommissionRecord) error {
	if _, ok := m.records[c.ID]; !ok {
		return secondary.ErrNotFound
	}
	cp := *c
	m.records[c.ID] = &cp
	return nil
}

func (m *mockCommissionRepository) List(ctx context.Context, filters secondary.CommissionFilters) ([]*secondary.CommissionRecord, error) {
	var result []*secondary.CommissionRecord
	for _, c := range m.records {
		if filters.OrganisationID != "" && c.OrganisationID != filters.OrganisationID {
			continue
		}
		if len(filters.Statuses) > 0 && !slices.Contains(filters.Statuses, c.Status) {
			continue
		}
		if filters.EndBefore != nil && (c.EndDate == nil || !c.EndDate.Before(*filters.EndBefore)) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockCommissionRepository) GetNextID(ctx context.Context) (string, error) {
	return commission.GenerateCommissionID(len(m.records)), nil
}

func (m *mockCommissionRepository) SuspendCurrent(ctx context.Context, organisationID string, reason commission.Reason, day time.Time) (int, error) {
	n := 0
	for _, c := range m.records {
		if c.OrganisationID == organisationID && c.Status == commission.StatusCurrent {
			c.Status = commission.StatusSuspended
			c.PrevStatus = commission.StatusSuspended
			c.StatusReason = reason
			c.StatusDate = &day
			n++
		}
	}
	return n, nil
}

func (m *mockCommissionRepository) ReinstateSuspended(ctx context.Context, organisationID string, reason commission.Reason, day time.Time) (int, error) {
	n := 0
	for _, c := range m.records {
		if c.OrganisationID == organisationID && c.Status == commission.StatusSuspended && c.StatusReason == reason {
			c.Status = commission.StatusCurrent
			c.PrevStatus = commission.StatusCurrent
			c.StatusReason = commission.ReasonNone
			c.StatusDate = &day
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Staff
// ============================================================================

// mockStaffRepository implements secondary.StaffRepository for testing.
type mockStaffRepository struct {
	managers map[string]*secondary.ManagerRecord
}

func newMockStaffRepository() *mockStaffRepository {
	return &mockStaffRepository{managers: make(map[string]*secondary.ManagerRecord)}
}

func (m *mockStaffRepository) ListManagers(ctx context.Context, organisationID string) ([]*secondary.ManagerRecord, error) {
	var result []*secondary.ManagerRecord
	for _, mgr := range m.managers {
		if mgr.OrganisationID == organisationID {
			result = append(result, m.copyOf(mgr))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StaffID < result[j].StaffID })
	return result, nil
}

func (m *mockStaffRepository) GetManager(ctx context.Context, staffID string) (*secondary.ManagerRecord, error) {
	if mgr, ok := m.managers[staffID]; ok {
		return m.copyOf(mgr), nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockStaffRepository) SetTags(ctx context.Context, staffID string, tags map[string]string) error {
	mgr, ok := m.managers[staffID]
	if !ok {
		return secondary.ErrNotFound
	}
	if mgr.Tags == nil {
		mgr.Tags = map[string]string{}
	}
	for k, v := range tags {
		mgr.Tags[k] = v
	}
	return nil
}

func (m *mockStaffRepository) DeleteTag(ctx context.Context, staffID, tag string) error {
	if mgr, ok := m.managers[staffID]; ok {
		delete(mgr.Tags, tag)
	}
	return nil
}

func (m *mockStaffRepository) UpdatePerson(ctx context.Context, staffID string, person secondary.PersonData) error {
	mgr, ok := m.managers[staffID]
	if !ok {
		return secondary.ErrNotFound
	}
	mgr.FirstName = person.FirstName
	mgr.LastName = person.LastName
	mgr.DateOfBirth = person.DateOfBirth
	return nil
}

func (m *mockStaffRepository) copyOf(mgr *secondary.ManagerRecord) *secondary.ManagerRecord {
	c := *mgr
	c.Tags = map[string]string{}
	for k, v := range mgr.Tags {
		c.Tags[k] = v
	}
	return &c
}

// ============================================================================
// Sites and approvals
// ============================================================================

// mockSiteRepository implements secondary.SiteRepository for testing.
type mockSiteRepository struct {
	sites map[string]*secondary.SiteRecord
}

func newMockSiteRepository() *mockSiteRepository {
	return &mockSiteRepository{sites: make(map[string]*secondary.SiteRecord)}
}

func (m *mockSiteRepository) Create(ctx context.Context, site *secondary.SiteRecord) error {
	c := *site
	m.sites[site.ID] = &c
	return nil
}

func (m *mockSiteRepository) GetByID(ctx context.Context, id string) (*secondary.SiteRecord, error) {
	if s, ok := m.sites[id]; ok {
		c := *s
		if s.Location != nil {
			loc := *s.Location
			c.Location = &loc
		}
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockSiteRepository) List(ctx context.Context, filters secondary.SiteFilters) ([]*secondary.SiteRecord, error) {
	var result []*secondary.SiteRecord
	for _, s := range m.sites {
		if filters.OrganisationID != "" && s.OrganisationID != filters.OrganisationID {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockSiteRepository) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("SITE-%03d", len(m.sites)+1), nil
}

func (m *mockSiteRepository) SetCode(ctx context.Context, siteID, code string) error {
	s, ok := m.sites[siteID]
	if !ok {
		return secondary.ErrNotFound
	}
	s.Code = code
	return nil
}

func (m *mockSiteRepository) UpdateLocation(ctx context.Context, siteID string, loc siteapproval.Location) error {
	s, ok := m.sites[siteID]
	if !ok {
		return secondary.ErrNotFound
	}
	if loc.ID == "" {
		loc.ID = "LOC-" + siteID
	}
	s.Location = &loc
	return nil
}

// mockSiteApprovalRepository implements secondary.SiteApprovalRepository for testing.
type mockSiteApprovalRepository struct {
	approvals map[string]*secondary.SiteApprovalRecord
	history   []*secondary.HistoryRecord
	sites     *mockSiteRepository
	orgs      *mockOrganisationRepository
}

func newMockSiteApprovalRepository(sites *mockSiteRepository, orgs *mockOrganisationRepository) *mockSiteApprovalRepository {
	return &mockSiteApprovalRepository{
		approvals: make(map[string]*secondary.SiteApprovalRecord),
		sites:     sites,
		orgs:      orgs,
	}
}

func (m *mockSiteApprovalRepository) Get(ctx context.Context, siteID string) (*secondary.SiteApprovalRecord, error) {
	if a, ok := m.approvals[siteID]; ok {
		c := *a
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockSiteApprovalRepository) Create(ctx context.Context, a *secondary.SiteApprovalRecord) error {
	c := *a
	m.approvals[a.SiteID] = &c
	return nil
}

func (m *mockSiteApprovalRepository) Update(ctx context.Context, a *secondary.SiteApprovalRecord) error {
	if _, ok := m.approvals[a.SiteID]; !ok {
		return secondary.ErrNotFound
	}
	c := *a
	m.approvals[a.SiteID] = &c
	return nil
}

func (m *mockSiteApprovalRepository) SetVisibility(ctx context.Context, organisationID string, public siteapproval.Public, reasons []siteapproval.PublicReason) ([]string, error) {
	var changed []string
	for id, a := range m.approvals {
		if a.OrganisationID != organisationID || a.Approval.Public == public {
			continue
		}
		if public == siteapproval.PublicYes {
			if !siteapproval.EligibleForPublish(a.Approval, reasons) {
				continue
			}
			a.Approval.Public = siteapproval.PublicYes
			a.Approval.PublicReason = siteapproval.ReasonNone
		} else {
			a.Approval.Public = siteapproval.PublicNo
			a.Approval.PublicReason = reasons[0]
		}
		changed = append(changed, id)
	}
	sort.Strings(changed)
	return changed, nil
}

func (m *mockSiteApprovalRepository) LastHistory(ctx context.Context, siteID string) (*secondary.HistoryRecord, error) {
	var last *secondary.HistoryRecord
	for _, h := range m.history {
		if h.SiteID == siteID && (last == nil || !h.Timestamp.Before(last.Timestamp)) {
			last = h
		}
	}
	if last == nil {
		return nil, secondary.ErrNotFound
	}
	c := *last
	return &c, nil
}

func (m *mockSiteApprovalRepository) AppendHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	c := *h
	c.ID = int64(len(m.history) + 1)
	m.history = append(m.history, &c)
	return nil
}

func (m *mockSiteApprovalRepository) ReplaceHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	for i, existing := range m.history {
		if existing.ID == h.ID {
			c := *h
			m.history[i] = &c
			return nil
		}
	}
	return secondary.ErrNotFound
}

func (m *mockSiteApprovalRepository) ListHistory(ctx context.Context, siteID string) ([]*secondary.HistoryRecord, error) {
	var result []*secondary.HistoryRecord
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].SiteID == siteID {
			result = append(result, m.history[i])
		}
	}
	return result, nil
}

func (m *mockSiteApprovalRepository) ListPublic(ctx context.Context) ([]secondary.RegistryEntry, error) {
	var result []secondary.RegistryEntry
	for id, a := range m.approvals {
		if a.Approval.Public != siteapproval.PublicYes {
			continue
		}
		entry := secondary.RegistryEntry{SiteID: id, OrganisationID: a.OrganisationID}
		if site, ok := m.sites.sites[id]; ok {
			entry.Name = site.Name
			entry.Code = site.Code
			if site.Location != nil {
				entry.Street = site.Location.Street
				entry.Postcode = site.Location.Postcode
				entry.Place = site.Location.Parent
			}
		}
		if org, ok := m.orgs.orgs[a.OrganisationID]; ok {
			entry.OrganisationName = org.Name
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SiteID < result[j].SiteID })
	return result, nil
}

func (m *mockSiteApprovalRepository) historyOf(siteID string) []*secondary.HistoryRecord {
	var result []*secondary.HistoryRecord
	for _, h := range m.history {
		if h.SiteID == siteID {
			result = append(result, h)
		}
	}
	return result
}

// ============================================================================
// Services
// ============================================================================

// mockIdentityProvider implements secondary.IdentityProvider for testing.
type mockIdentityProvider struct {
	identity *secondary.Identity
	err      error
}

func (m *mockIdentityProvider) CurrentIdentity(ctx context.Context) (*secondary.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}

// as acts as a member of ORG-001 with the given roles.
func (m *mockIdentityProvider) as(role access.Role, authRoles ...string) {
	m.identity = &secondary.Identity{
		UserID:    "user-1",
		Role:      role,
		AuthRoles: authRoles,
		Email:     "actor@example.org",

		OrganisationID: "ORG-001",
	}
}

func (m *mockIdentityProvider) memberOf(organisationID string) {
	m.identity.OrganisationID = organisationID
}

// mockNotifier implements secondary.Notifier for testing.
type mockNotifier struct {
	sent []secondary.Notification
	err  error
}

func (m *mockNotifier) Send(ctx context.Context, n secondary.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) templates() []string {
	var names []string
	for _, n := range m.sent {
		names = append(names, n.Template)
	}
	return names
}

// mockContactDirectory implements secondary.ContactDirectory for testing.
type mockContactDirectory struct {
	emails map[string][]string // org ID -> ORG_ADMIN emails
}

func (m *mockContactDirectory) RoleEmails(ctx context.Context, role, organisationID string) ([]string, error) {
	if role != access.AuthOrgAdmin {
		return nil, nil
	}
	return m.emails[organisationID], nil
}

// mockRequirementTexts implements secondary.RequirementTexts for testing.
type mockRequirementTexts struct {
	posts map[string]string
}

func (m *mockRequirementTexts) PostBody(ctx context.Context, name string) (string, error) {
	if body, ok := m.posts[name]; ok {
		return body, nil
	}
	return "", secondary.ErrNotFound
}

// mockRegistryCache implements secondary.RegistryCache for testing.
type mockRegistryCache struct {
	entries       []secondary.RegistryEntry
	valid         bool
	invalidations int
}

func (m *mockRegistryCache) Get(ctx context.Context) ([]secondary.RegistryEntry, bool, error) {
	return m.entries, m.valid, nil
}

func (m *mockRegistryCache) Set(ctx context.Context, entries []secondary.RegistryEntry) error {
	m.entries = entries
	m.valid = true
	return nil
}

func (m *mockRegistryCache) Invalidate(ctx context.Context) error {
	m.entries = nil
	m.valid = false
	m.invalidations++
	return nil
}

// fixedClock implements secondary.Clock for testing.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// ============================================================================
// Fixture
// ============================================================================

// testEnv wires both services against shared mocks.
type testEnv struct {
	orgs          *mockOrganisationRepository
	verifications *mockVerificationRepository
	commissions   *mockCommissionRepository
	staff         *mockStaffRepository
	sites         *mockSiteRepository
	approvals     *mockSiteApprovalRepository
	identity      *mockIdentityProvider
	notifier      *mockNotifier
	contacts      *mockContactDirectory
	texts         *mockRequirementTexts
	cache         *mockRegistryCache
	clock         *fixedClock

	provider *ProviderServiceImpl
	station  *StationServiceImpl
}

const testGroup = "COVID-19 Test Stations"

func newTestEnv() *testEnv {
	env := &testEnv{
		orgs:          newMockOrganisationRepository(),
		verifications: newMockVerificationRepository(),
		commissions:   newMockCommissionRepository(),
		staff:         newMockStaffRepository(),
		sites:         newMockSiteRepository(),
		identity:      &mockIdentityProvider{},
		notifier:      &mockNotifier{},
		contacts:      &mockContactDirectory{emails: map[string][]string{}},
		texts:         &mockRequirementTexts{posts: map[string]string{}},
		cache:         &mockRegistryCache{},
		clock:         &fixedClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)},
	}
	env.approvals = newMockSiteApprovalRepository(env.sites, env.orgs)
	env.identity.as(access.RoleApprover)

	env.station = NewStationService(
		env.sites,
		env.approvals,
		env.commissions,
		env.identity,
		env.notifier,
		env.contacts,
		env.texts,
		env.cache,
		env.clock,
		StationConfig{BaseURL: "https://gims.example.org"},
	)
	env.station.pick = func(n int) int { return 0 }

	env.provider = NewProviderService(
		env.orgs,
		env.verifications,
		env.commissions,
		env.staff,
		env.identity,
		env.station,
		env.notifier,
		env.contacts,
		env.clock,
		ProviderConfig{TestStationsGroup: testGroup},
	)
	return env
}

func (e *testEnv) addOrg(id string, types ...string) {
	e.orgs.orgs[id] = &secondary.OrganisationRecord{
		ID:       id,
		Name:     "Provider " + id,
		UUID:     "urn:uuid:1a2b3c4d-0000-4000-8000-000000000000",
		OrgGroup: testGroup,
	}
	e.orgs.types[id] = types
	e.contacts.emails[id] = []string{"admin@" + id + ".example.org"}
}

func (e *testEnv) addCommission(id, orgID string, status commission.Status, start string, end string) {
	record := &secondary.CommissionRecord{
		ID:             id,
		OrganisationID: orgID,
		Date:           mustDate(start),
		Status:         status,
		PrevStatus:     status,
	}
	if end != "" {
		endDate := mustDate(end)
		record.EndDate = &endDate
	}
	e.commissions.records[id] = record
}

func (e *testEnv) addSite(id, orgID string) {
	e.sites.sites[id] = &secondary.SiteRecord{
		ID:             id,
		OrganisationID: orgID,
		Name:           "Test Station " + id,
		UUID:           "urn:uuid:000f4240-0000-4000-8000-000000000000",
		Location: &siteapproval.Location{
			ID:       "LOC-" + id,
			Parent:   "Mainz",
			Street:   "Hauptstr. 1",
			Postcode: "55116",
		},
	}
}

// setApproval stores an approval as the workflow would have left it,
// including the data hash of the current location when APPROVED.
func (e *testEnv) setApproval(siteID string, a siteapproval.Approval) {
	site := e.sites.sites[siteID]
	if a.Status == siteapproval.StatusApproved && a.DHash == "" {
		a.DHash = siteapproval.LocationHash(site.Location)
	}
	e.approvals.approvals[siteID] = &secondary.SiteApprovalRecord{
		SiteID:         siteID,
		OrganisationID: site.OrganisationID,
		Approval:       a,
	}
}

func listed() siteapproval.Approval {
	return siteapproval.Approval{
		Status:  siteapproval.StatusApproved,
		MPAV:    siteapproval.ReviewApproved,
		Hygiene: siteapproval.ReviewApproved,
		Layout:  siteapproval.ReviewApproved,
		Public:  siteapproval.PublicYes,
	}
}

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }
