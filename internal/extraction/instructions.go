package extraction

const jobInstruction = `You extract structured data from job descriptions. Only report details
the text states. Defaults: salary currency INR, location In-Office, job type
FULL_TIME, job level Associate, joining availability 30 days. Missing numbers
are 0, missing booleans false and missing strings empty. Core, mandatory and
good to have skills are technology keywords without soft skills, and mandatory
skills are a subset of core skills. When only a minimum experience is given the
maximum equals it. Tools and software must not repeat core or mandatory skills.`

const resumeInstruction = `You extract structured data from resumes. Only report details you are
sure of and leave the rest empty. Skill lists name technologies, frameworks and
libraries, not concepts. Use 'current' as the end date of an ongoing role.
Apply the update notes when they are given.`

const refinementInstruction = `Replace stack names such as MERN or MEAN with their frameworks and
libraries, then map every skill to its programming languages. Prefer languages
used in the employment history and personal projects when several apply.
Return an empty list of values when unsure.`

const redFlagsInstruction = `Analyse the resume for red flags. Report only factual observations
backed by the resume and give evidence for each raised flag. Ignore minor and
formatting issues.`
