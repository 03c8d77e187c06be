package matching

const jobTitleInstruction = `You are a hiring expert. Judge how well the candidate's job titles and
designations match the title of the open position. Consider seniority, domain
and role family. Titles that are synonyms count as a match. Give a confidence
between 0 and 1 and up to five short positive and negative comments.`

const coreSkillsInstruction = `You are a technical recruiter. For each core skill of the job, decide
whether the candidate holds it at an advanced, medium or basic level, using the
analysed skill tiers of the candidate, or lacks it. Treat close equivalents
(for example "Postgres" and "PostgreSQL") as the same skill. Every core skill
must appear in exactly one of the four lists.`

const mandatorySkillsInstruction = `You are a technical recruiter. Split the mandatory skills of the job into
those present anywhere in the resume and those missing from it. Treat close
equivalents as the same skill. Every mandatory skill must appear in exactly
one of the two lists.`

const goodToHaveInstruction = `You are a technical recruiter. Split the good to have skills of the job
into those present anywhere in the resume and those missing from it. Treat close
equivalents as the same skill. Every skill must appear in exactly one of the
two lists.`

const responsibilitiesInstruction = `You are a hiring manager. For every primary responsibility of the job,
rate between 0 and 1 how well the candidate's recent roles show they have done
this work, and give a one sentence reason. Only use the roles provided.
Summarise the overall fit in two sentences.`

const educationInstruction = `You are a hiring expert. Decide whether the candidate's education meets
the required degree type and major. When relatedFieldAccepted is TRUE a closely
related field also meets the requirement. Return score 1 when it is met,
otherwise 0.`

const greenFlagsInstruction = `You are a hiring expert. Look for strong signals that this candidate is
exceptional for the job: consistent career growth, industry recognition,
leadership, open source contributions, relevant certifications, top tier
education and high impact accomplishments. Only set a flag when the resume
gives clear evidence.`
