package reportedit

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/validate"
)

func AddExport(e models.Export) Action {
	return func(v *models.ReportView) error {
		if err := validate.Export(e); err != nil {
			return err
		}
		if v.ID != 0 {
			e.ReportID = null.IntFrom(int64(v.ID))
		}
		v.Exports = append(v.Exports, models.ExportComplex{Export: e})
		return nil
	}
}

// RemoveExport drops the export at index. Exports already stored by the
// backend are queued in ExportsToBeDeleted.
func RemoveExport(index int) Action {
	return func(v *models.ReportView) error {
		if index < 0 || index >= len(v.Exports) {
			return fmt.Errorf("export index %d out of range", index)
		}
		removed := v.Exports[index]
		v.Exports = append(v.Exports[:index:index], v.Exports[index+1:]...)
		if removed.Export.ID != 0 {
			v.ExportsToBeDeleted = append(v.ExportsToBeDeleted, removed)
		}
		return nil
	}
}

func normalizeSendType(s string) (string, error) {
	for _, t := range []string{models.SendTypeTo, models.SendTypeCC, models.SendTypeBCC} {
		if strings.EqualFold(s, t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown send type %q", s)
}

// AddRecipient adds an address; an existing entry for the same address has
// its send type replaced.
func AddRecipient(sendType, address string) Action {
	return func(v *models.ReportView) error {
		st, err := normalizeSendType(sendType)
		if err != nil {
			return err
		}
		address = strings.TrimSpace(address)
		if err := validate.Email(address); err != nil {
			return err
		}
		for i, r := range v.EmailLists {
			if strings.EqualFold(r.Address.String, address) {
				v.EmailLists[i].SendType = null.StringFrom(st)
				return nil
			}
		}
		v.EmailLists = append(v.EmailLists, models.EmailList{
			ReportID: v.ID,
			SendType: null.StringFrom(st),
			Address:  null.StringFrom(address),
		})
		return nil
	}
}

func RemoveRecipient(address string) Action {
	return func(v *models.ReportView) error {
		for i, r := range v.EmailLists {
			if strings.EqualFold(r.Address.String, strings.TrimSpace(address)) {
				v.EmailLists = append(v.EmailLists[:i:i], v.EmailLists[i+1:]...)
				if r.ID != 0 {
					v.EmailListsToBeDeleted = append(v.EmailListsToBeDeleted, r)
				}
				return nil
			}
		}
		return fmt.Errorf("recipient %q not found", address)
	}
}

// EmailSettings is the notification block of a report.
type EmailSettings struct {
	Enabled        bool
	From           string
	Subject        string
	Body           string
	SendSecure     bool
	Attachment     bool
	AttachmentName string
	Zip            bool
	ZipPassword    string
}

func SetEmail(s EmailSettings) Action {
	return func(v *models.ReportView) error {
		if s.Enabled {
			if err := validate.Email(s.From); err != nil {
				return fmt.Errorf("sender: %w", err)
			}
		}
		if s.ZipPassword != "" && !s.Zip {
			return fmt.Errorf("zip password set without zipping the attachment")
		}
		v.EmailReport = &models.EmailReport{
			ReportID:       v.ID,
			Disable:        !s.Enabled,
			From:           null.StringFrom(s.From),
			Subject:        null.StringFrom(s.Subject),
			Body:           null.StringFrom(s.Body),
			SendSecure:     null.BoolFrom(s.SendSecure),
			Attachment:     null.BoolFrom(s.Attachment),
			AttachmentName: null.StringFrom(s.AttachmentName),
			ZipFile:        null.BoolFrom(s.Zip),
			ZipPassword:    null.StringFrom(s.ZipPassword),
		}
		return nil
	}
}
