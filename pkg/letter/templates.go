package letter

import "text/template"

const parkingBody = `{{.Date}}

To: Parking Violations Bureau
From: {{.Name}}
Address: {{.Address}}
Phone: {{.Phone}}
Email: {{.Email}}

RE: FORMAL DISPUTE OF PARKING CITATION
Citation Number: {{.TicketNumber}}
Date of Alleged Violation: {{.IssueDate}}{{if .Amount}}
Fine Amount: {{.Amount}}{{end}}

Dear Hearing Officer,

I am formally disputing the above-referenced parking citation issued on {{.IssueDate}} at {{.Location}}. I respectfully request that this citation be dismissed for the following reasons:

VEHICLE INFORMATION:
{{.VehicleInfo}}

VIOLATION ALLEGED:
The citation alleges: {{.Violation}}

GROUNDS FOR DISPUTE:
{{.DisputeReason}}

SUPPORTING EVIDENCE:
{{.Evidence}}

LEGAL BASIS FOR DISMISSAL:
Based on the circumstances described above, this citation should be dismissed because:
1. The alleged violation did not occur as described
2. The evidence supports my lawful parking at the time in question
3. Any violation that may have occurred was not willful and was due to circumstances beyond my control

I respectfully request that you review all evidence and dismiss this citation. The burden of proof lies with the issuing authority to prove beyond a reasonable doubt that a violation occurred. The evidence I have provided clearly demonstrates that no violation took place.

CONCLUSION:
I am requesting a full dismissal of this citation. I believe the evidence clearly shows that no parking violation occurred, and I respectfully ask for your careful consideration of all facts presented.

Thank you for your time and consideration. I look forward to a favorable resolution of this matter.

Sincerely,

{{.Name}}
{{.Date}}

---
ATTACHMENTS:
Please find attached the following supporting documentation:
- Copy of parking citation
- Photographic evidence (if applicable)
- Receipts or other relevant documentation
- Any additional supporting materials referenced above
`

const housingBody = `{{.Date}}

To: {{.LandlordName}}
{{.LandlordAddress}}

From: {{.TenantName}}
{{.TenantAddress}}
Phone: {{.TenantPhone}}
Email: {{.TenantEmail}}

RE: FORMAL NOTICE REGARDING HOUSING ISSUES
Property Address: {{.PropertyAddress}}

Dear {{.LandlordName}},

I am writing to formally document and request immediate resolution of serious issues at the above-referenced rental property. This letter serves as official notice of these problems and my request for prompt corrective action.

PROPERTY INFORMATION:
- Property Address: {{.PropertyAddress}}
- Monthly Rent: {{.RentAmount}}
- Lease Start Date: {{.LeaseStart}}

ISSUE DESCRIPTION:
{{.IssueDescription}}

TIMELINE OF EVENTS:
{{.Timeline}}

PREVIOUS ATTEMPTS AT RESOLUTION:
{{.AttemptedResolution}}

IMPACT ON HABITABILITY:
The issues described above have significantly impacted the habitability of the rental unit and my ability to peacefully enjoy the premises as guaranteed under the lease agreement and applicable housing laws. These conditions may constitute violations of:

- Local housing codes and regulations
- State habitability standards
- Terms of the lease agreement
- Tenant rights under applicable law

REQUESTED RESOLUTION:
I am requesting the following corrective action:
{{.DesiredOutcome}}

LEGAL OBLIGATIONS:
Please be advised that as the property owner/manager, you have legal obligations under state and local law to:
- Maintain the property in habitable condition
- Make necessary repairs in a timely manner
- Ensure compliance with all applicable housing codes
- Provide tenants with peaceful enjoyment of the premises

SUPPORTING DOCUMENTATION:
The following evidence supports my claims:
{{.Evidence}}

TIMELINE FOR RESPONSE:
I respectfully request that you respond to this letter within 7 days to confirm your plan for addressing these issues. Under applicable law, you may be required to complete repairs within a reasonable time frame, typically 30 days for non-emergency issues and immediately for emergency situations.

NEXT STEPS:
If these issues are not addressed promptly, I may be forced to pursue additional remedies available under law, which may include:
- Filing complaints with local housing authorities
- Withholding rent as permitted by law
- Seeking rent reduction or compensation
- Terminating the lease without penalty
- Pursuing legal action for damages

I prefer to resolve this matter amicably and look forward to your prompt attention to these concerns. Please contact me at your earliest convenience to discuss a resolution plan.

Thank you for your immediate attention to this matter.

Sincerely,

{{.TenantName}}
{{.Date}}

---
COPIES SENT TO:
- Local Housing Authority (if applicable)
- Property Management Company (if applicable)
- Personal records

ATTACHMENTS:
- Photographic evidence
- Previous correspondence
- Receipts and documentation
- Copy of lease agreement (relevant sections)
`

var (
	parkingTmpl = template.Must(template.New("parking").Option("missingkey=error").Parse(parkingBody))
	housingTmpl = template.Must(template.New("housing").Option("missingkey=error").Parse(housingBody))
)

// Paragraphs starting with these are set in bold.
var (
	parkingHeaders = []string{
		"RE:", "VEHICLE INFORMATION:", "VIOLATION ALLEGED:", "GROUNDS FOR DISPUTE:",
		"SUPPORTING EVIDENCE:", "LEGAL BASIS FOR DISMISSAL:", "CONCLUSION:", "ATTACHMENTS:",
	}
	housingHeaders = []string{
		"RE:", "PROPERTY INFORMATION:", "ISSUE DESCRIPTION:", "TIMELINE OF EVENTS:",
		"PREVIOUS ATTEMPTS AT RESOLUTION:", "IMPACT ON HABITABILITY:", "REQUESTED RESOLUTION:",
		"LEGAL OBLIGATIONS:", "SUPPORTING DOCUMENTATION:", "TIMELINE FOR RESPONSE:",
		"NEXT STEPS:", "COPIES SENT TO:", "ATTACHMENTS:",
	}
)
