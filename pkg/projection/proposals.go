package projection

import (
	"context"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
)

// ProposalEntry is a proposal decorated with the record identifiers its
// issuer currently owns, custodians, or reports on.
type ProposalEntry struct {
	model.Proposal
	IssuerOwns      []string `json:"issuerOwns"`
	IssuerCustodian []string `json:"issuerCustodian"`
	IssuerReports   []string `json:"issuerReports"`
}

// ProposalFilter narrows a proposal query. Zero fields match all.
type ProposalFilter struct {
	RecordID     string
	ReceivingKey string
	Status       model.ProposalStatus
}

func (f ProposalFilter) storageFilter() storage.Filter {
	filter := storage.Filter{}
	if f.RecordID != "" {
		filter["recordId"] = f.RecordID
	}
	if f.ReceivingKey != "" {
		filter["receivingKey"] = f.ReceivingKey
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

// ListProposals returns proposals matching the filter, decorated with
// the issuer's current record associations.
func (p *Projector) ListProposals(ctx context.Context, filter ProposalFilter) ([]ProposalEntry, error) {
	entries := []ProposalEntry{}
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		proposals, err := scanCurrent[model.Proposal](ctx, p, storage.Proposals, block, filter.storageFilter())
		if err != nil {
			return err
		}

		assocCache := map[string]issuerAssociations{}
		for _, prop := range proposals {
			assoc, ok := assocCache[prop.IssuingKey]
			if !ok {
				assoc, err = p.issuerAssociations(ctx, block, prop.IssuingKey)
				if err != nil {
					return err
				}
				assocCache[prop.IssuingKey] = assoc
			}
			entries = append(entries, ProposalEntry{
				Proposal:        prop,
				IssuerOwns:      assoc.owns,
				IssuerCustodian: assoc.custodian,
				IssuerReports:   assoc.reports,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchProposal returns one proposal by identifier.
func (p *Projector) FetchProposal(ctx context.Context, proposalID string) (*ProposalEntry, error) {
	var entry *ProposalEntry
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		proposals, err := scanCurrent[model.Proposal](ctx, p, storage.Proposals, block, storage.Filter{
			"proposalId": proposalID,
		})
		if err != nil {
			return err
		}
		if len(proposals) == 0 {
			return ErrNotFound
		}

		assoc, err := p.issuerAssociations(ctx, block, proposals[0].IssuingKey)
		if err != nil {
			return err
		}
		entry = &ProposalEntry{
			Proposal:        proposals[0],
			IssuerOwns:      assoc.owns,
			IssuerCustodian: assoc.custodian,
			IssuerReports:   assoc.reports,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListExchanges returns every matched exchange current at the horizon.
func (p *Projector) ListExchanges(ctx context.Context) ([]model.Exchange, error) {
	exchanges := []model.Exchange{}
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		var err error
		exchanges, err = scanCurrent[model.Exchange](ctx, p, storage.Exchanges, block, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return exchanges, nil
}

// issuerAssociations collects the records a participant currently owns,
// custodians, or is an authorized reporter for.
type issuerAssociations struct {
	owns      []string
	custodian []string
	reports   []string
}

func (p *Projector) issuerAssociations(ctx context.Context, block uint64, publicKey string) (issuerAssociations, error) {
	assoc := issuerAssociations{owns: []string{}, custodian: []string{}, reports: []string{}}

	records, err := scanCurrent[model.Record](ctx, p, storage.Records, block, nil)
	if err != nil {
		return assoc, err
	}
	for _, rec := range records {
		if currentAssociate(rec.Owners) == publicKey {
			assoc.owns = append(assoc.owns, rec.RecordID)
		}
		if currentAssociate(rec.Custodians) == publicKey {
			assoc.custodian = append(assoc.custodian, rec.RecordID)
		}
	}

	properties, err := scanCurrent[model.Property](ctx, p, storage.Properties, block, nil)
	if err != nil {
		return assoc, err
	}
	seen := map[string]bool{}
	for _, prop := range properties {
		if seen[prop.RecordID] {
			continue
		}
		for _, r := range prop.Reporters {
			if r.PublicKey == publicKey && r.Authorized {
				assoc.reports = append(assoc.reports, prop.RecordID)
				seen[prop.RecordID] = true
				break
			}
		}
	}

	return assoc, nil
}
